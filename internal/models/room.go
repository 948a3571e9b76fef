package models

import (
	"time"
)

// RoomStatus 房间状态
type RoomStatus string

const (
	// RoomWaiting 等待中
	RoomWaiting RoomStatus = "waiting"
	// RoomPlaying 游戏中
	RoomPlaying RoomStatus = "playing"
	// RoomEnded 已结束
	RoomEnded RoomStatus = "ended"
)

// RoomInfo 房间概要，用于房间列表
type RoomInfo struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Character string     `json:"character"`
	Status    RoomStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	StartedAt time.Time  `json:"started_at,omitempty"`
	EndedAt   time.Time  `json:"ended_at,omitempty"`

	// 房间内实时数据
	Tick    int64 `json:"tick"`
	Level   int   `json:"level"`
	Kills   int   `json:"kills"`
	Enemies int   `json:"enemies"`
}
