// main.go

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jacl-coder/PixelStorm-Survivor/internal/game"
	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
	"github.com/jacl-coder/PixelStorm-Survivor/internal/protocol"
)

// 无界面渲染端，创建一局并订阅二进制快照，打印摘要
func main() {
	addr := flag.String("addr", "localhost:8080", "服务器地址")
	username := flag.String("user", "watcher", "用户名")
	character := flag.String("character", "", "角色ID，为空时使用默认角色")
	every := flag.Int("every", 60, "每隔多少个 tick 打印一次")
	formatName := flag.String("format", "proto", "快照格式: proto, msgpack")
	flag.Parse()

	format, ok := protocol.ParseFormat(*formatName)
	if !ok || !format.Binary() {
		log.Fatalf("不支持的快照格式: %s", *formatName)
	}

	run, err := createRun(*addr, *username, *character)
	if err != nil {
		log.Fatalf("创建对局失败: %v", err)
	}
	log.Printf("对局已创建: %s，角色: %s", run.RunID, run.Character)

	q := url.Values{}
	q.Set("run_id", run.RunID)
	q.Set("token", run.Token)
	q.Set("format", string(format))
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws", RawQuery: q.Encode()}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("连接失败: %v", err)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("读取失败: %v", err)
				}
				return
			}
			if kind == websocket.TextMessage {
				printText(data)
				continue
			}
			snap, err := decode(format, data)
			if err != nil {
				log.Printf("解析快照失败: %v", err)
				continue
			}
			printSnapshot(snap, int64(*every))
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		<-done
	}
}

func decode(format protocol.Format, data []byte) (*models.Snapshot, error) {
	if format == protocol.FormatMsgpack {
		return protocol.DecodeSnapshotMsgpack(data)
	}
	return protocol.DecodeSnapshot(data)
}

func createRun(addr, username, character string) (*game.CreateRunResponse, error) {
	body, err := json.Marshal(game.CreateRunRequest{Username: username, Character: character})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post("http://"+addr+"/runs", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("服务器返回 %s", resp.Status)
	}

	var run game.CreateRunResponse
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	return &run, nil
}

func printText(data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		log.Printf("无法解析的文本帧: %s", data)
		return
	}
	log.Printf("[%s] %s", msg.Type, msg.Payload)
}

func printSnapshot(s *models.Snapshot, every int64) {
	for _, ev := range s.Events {
		if ev.Type == models.EventLevelUp || ev.Type == models.EventPlayerDeath {
			log.Printf("tick %d 事件 %s", s.Tick, ev.Type)
		}
	}
	if every > 0 && s.Tick%every != 0 && s.Status != models.RoomEnded {
		return
	}
	p := s.Player
	log.Printf("tick %d  hp %d/%d  lv %d  exp %d/%d  kills %d  enemies %d  orbs %d  bullets %d",
		s.Tick, p.Health, p.MaxHealth, p.Level, p.Exp, p.ExpToNext, p.Kills,
		len(s.Enemies), len(s.Orbs), len(s.Bullets))
}
