package models

import "time"

// Character 角色预设，决定玩家的初始属性和技能栏
type Character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// 基础属性
	MaxHP          int           `json:"max_hp"`
	Speed          float64       `json:"speed"`
	AttackDamage   int           `json:"attack_damage"`
	AttackRange    float64       `json:"attack_range"`
	AttackCooldown time.Duration `json:"attack_cooldown"`
	BulletSpeed    float64       `json:"bullet_speed"`
	MagnetRange    float64       `json:"magnet_range"`

	// 技能列表，顺序即技能栏顺序
	Skills []SkillID `json:"skills"`
}

// DefaultCharacterID 默认角色
const DefaultCharacterID = "survivor"

var characters = map[string]Character{
	DefaultCharacterID: {
		ID:             DefaultCharacterID,
		Name:           "幸存者",
		Description:    "均衡型角色，携带全部六个技能",
		MaxHP:          100,
		Speed:          200,
		AttackDamage:   10,
		AttackRange:    300,
		AttackCooldown: 500 * time.Millisecond,
		BulletSpeed:    400,
		MagnetRange:    100,
		Skills: []SkillID{
			SkillFireball,
			SkillHealingAura,
			SkillChainLightning,
			SkillFrostShield,
			SkillSummonGolem,
			SkillExplosiveArrow,
		},
	},
	"mage": {
		ID:             "mage",
		Name:           "法师",
		Description:    "血量较低，普攻射程更远，只携带法术技能",
		MaxHP:          80,
		Speed:          180,
		AttackDamage:   8,
		AttackRange:    380,
		AttackCooldown: 600 * time.Millisecond,
		BulletSpeed:    450,
		MagnetRange:    140,
		Skills: []SkillID{
			SkillFireball,
			SkillChainLightning,
			SkillFrostShield,
		},
	},
}

// GetCharacter 按ID查找角色预设
func GetCharacter(id string) (Character, bool) {
	c, ok := characters[id]
	if !ok {
		return Character{}, false
	}
	c.Skills = append([]SkillID(nil), c.Skills...)
	return c, true
}

// ListCharacters 返回全部角色预设ID
func ListCharacters() []string {
	ids := make([]string, 0, len(characters))
	for id := range characters {
		ids = append(ids, id)
	}
	return ids
}
