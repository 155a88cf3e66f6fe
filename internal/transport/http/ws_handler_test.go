package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"bankprep-service/internal/app"
	"bankprep-service/internal/domain"
)

func TestWebSocketLeaderboardStream(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	quiz := ts.createQuiz(t)
	token, user := ts.registerStudent(t, "asha@example.com")

	u := "ws" + ts.URL[len("http"):] + "/api/ws/leaderboard?quizId=" + quiz.ID + "&token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot arrives first, before any scores exist.
	snapshot := readBoard(t, conn)
	if len(snapshot.Entries) != 0 {
		t.Fatalf("expected empty initial board, got %+v", snapshot.Entries)
	}

	if resp, data := ts.do(t, http.MethodPost, "/api/quizzes/"+quiz.ID+"/submit", token, app.Submission{
		Answers: map[string]int{"q1": 1, "q2": 2},
	}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit: %d %s", resp.StatusCode, data)
	}

	update := readBoard(t, conn)
	if len(update.Entries) != 1 || update.Entries[0].UserID != user.ID || update.Entries[0].TotalScore != 100 {
		t.Fatalf("unexpected update: %+v", update.Entries)
	}
}

func TestWebSocketRequiresQuizID(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	token, _ := ts.registerStudent(t, "asha@example.com")
	u := "ws" + ts.URL[len("http"):] + "/api/ws/leaderboard?token=" + token
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatal("expected dial to fail without quizId")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %+v", resp)
	}
}

func readBoard(t *testing.T, conn *websocket.Conn) domain.Leaderboard {
	t.Helper()
	var msg struct {
		Type    string             `json:"type"`
		Payload domain.Leaderboard `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "leaderboard" {
		t.Fatalf("expected leaderboard message, got %s", msg.Type)
	}
	return msg.Payload
}
