package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SCripts2024roblox/WatchingRoom/internal/chat"
)

var (
	wsURL     = flag.String("url", "ws://localhost:3000/ws", "websocket endpoint")
	pairCount = flag.Int("pairs", 50, "number of user pairs")
	msgCount  = flag.Int("messages", 20, "messages per user")
)

func main() {
	flag.Parse()
	log.Printf("🔥 STARTING STRESS TEST: %d users, %d messages each...", *pairCount*2, *msgCount)

	var wg sync.WaitGroup
	for i := 0; i < *pairCount; i++ {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runPair(pairID)
		}(i)
	}
	wg.Wait()

	log.Println("✅ LOAD TEST COMPLETE")
}

// runPair drives two users that join, chat in the broadcast channel, and
// exchange private messages with each other.
func runPair(pairID int) {
	// No underscores in ids: they are the private-channel separator.
	userA := fmt.Sprintf("pair%da", pairID)
	userB := fmt.Sprintf("pair%db", pairID)

	var wsWg sync.WaitGroup
	wsWg.Add(2)
	go spamChat(&wsWg, userA, userB)
	go spamChat(&wsWg, userB, userA)
	wsWg.Wait()
}

func spamChat(wg *sync.WaitGroup, user, peer string) {
	defer wg.Done()

	conn, _, err := websocket.DefaultDialer.Dial(*wsURL, nil)
	if err != nil {
		log.Printf("❌ WS connect fail [%s]: %v", user, err)
		return
	}
	defer conn.Close()

	// Drain server frames so the read side never backs up.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	join := map[string]any{
		"type": "join",
		"user": map[string]string{"id": user, "nickname": user},
	}
	if err := conn.WriteJSON(join); err != nil {
		log.Printf("❌ join fail [%s]: %v", user, err)
		return
	}

	private := chat.PrivateChannelID(user, peer)
	for i := 0; i < *msgCount; i++ {
		broadcast := map[string]any{
			"type":    "message",
			"message": fmt.Sprintf("loadtest broadcast %d from %s", i, user),
		}
		if err := conn.WriteJSON(broadcast); err != nil {
			log.Printf("❌ send fail [%s]: %v", user, err)
			break
		}

		direct := map[string]any{
			"type":    "message",
			"chatId":  private,
			"message": fmt.Sprintf("loadtest private %d from %s", i, user),
		}
		if err := conn.WriteJSON(direct); err != nil {
			log.Printf("❌ send fail [%s]: %v", user, err)
			break
		}

		// Small sleep to prevent instant localhost bottleneck.
		time.Sleep(10 * time.Millisecond)
	}
	log.Printf("✅ %s finished sending %d msgs", user, *msgCount*2)
}
