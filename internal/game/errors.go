package game

import "errors"

var (
	// ErrOnCooldown 技能冷却中
	ErrOnCooldown = errors.New("技能冷却中")
	// ErrUnknownSkill 技能不存在
	ErrUnknownSkill = errors.New("未知技能")
	// ErrPlayerDead 玩家已死亡，无法施法
	ErrPlayerDead = errors.New("玩家已死亡")
	// ErrInvalidPosition 位置越界或不是有限数
	ErrInvalidPosition = errors.New("无效的位置")
	// ErrInvalidOrbValue 经验球数值只能是 1、5、10
	ErrInvalidOrbValue = errors.New("无效的经验球数值")
	// ErrNotFound 实体不存在
	ErrNotFound = errors.New("实体不存在")
	// ErrRoomClosed 房间已关闭
	ErrRoomClosed = errors.New("房间已关闭")
	// ErrInboxFull 房间指令队列已满
	ErrInboxFull = errors.New("房间指令队列已满")
	// ErrRoomLimit 房间数量达到上限
	ErrRoomLimit = errors.New("房间数量已达上限")
)
