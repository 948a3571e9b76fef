// character.go

package gateway

import (
	"net/http"
	"sort"
	"strings"

	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

// SkillLookup 按ID查询技能定义
type SkillLookup func(id models.SkillID) (models.SkillDefinition, bool)

// CharacterHandler 角色预设查询
type CharacterHandler struct {
	lookup SkillLookup
}

// NewCharacterHandler 创建角色处理器
func NewCharacterHandler(lookup SkillLookup) *CharacterHandler {
	return &CharacterHandler{lookup: lookup}
}

// RegisterHandlers 注册HTTP处理器
func (h *CharacterHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/characters", h.handleCharacters)
	mux.HandleFunc("/characters/", h.handleCharacterDetail)
}

// CharacterDetail 角色详情，附带技能定义
type CharacterDetail struct {
	models.Character
	SkillDetails []models.SkillDefinition `json:"skill_details"`
}

// handleCharacters 处理角色列表查询
func (h *CharacterHandler) handleCharacters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendErrorResponse(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	ids := models.ListCharacters()
	sort.Strings(ids)

	characters := make([]models.Character, 0, len(ids))
	for _, id := range ids {
		if c, ok := models.GetCharacter(id); ok {
			characters = append(characters, c)
		}
	}

	sendSuccessResponse(w, "查询成功", characters)
}

// handleCharacterDetail 处理角色详情查询
func (h *CharacterHandler) handleCharacterDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendErrorResponse(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/characters/")
	character, ok := models.GetCharacter(id)
	if !ok {
		sendErrorResponse(w, "角色不存在", http.StatusNotFound)
		return
	}

	detail := CharacterDetail{Character: character}
	if h.lookup != nil {
		for _, sid := range character.Skills {
			if def, ok := h.lookup(sid); ok {
				detail.SkillDetails = append(detail.SkillDetails, def)
			}
		}
	}

	sendSuccessResponse(w, "查询成功", detail)
}
