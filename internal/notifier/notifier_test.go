package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/models"
	"github.com/KakraGeek/churchsuitegh/internal/store/memory"
	"github.com/bwmarrin/discordgo"
)

type fakeSender struct {
	channel  string
	messages []string
	err      error
}

func (f *fakeSender) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.channel = channelID
	f.messages = append(f.messages, content)
	return &discordgo.Message{Content: content}, nil
}

func TestDiscordNotifier_ChildCheckIn(t *testing.T) {
	sender := &fakeSender{}
	n := NewDiscordNotifier(sender, "chan-1")

	child := models.Child{FirstName: "Akosua", LastName: "Mensah", Code: "CHILD_0001", MedicalNotes: "Asthma"}
	rec := models.ChildCheckIn{CheckInTime: time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC), Location: "Room B"}

	if err := n.NotifyChildCheckIn(context.Background(), child, rec); err != nil {
		t.Fatalf("NotifyChildCheckIn returned error: %v", err)
	}
	if sender.channel != "chan-1" {
		t.Errorf("expected channel chan-1, got %s", sender.channel)
	}
	msg := sender.messages[0]
	for _, want := range []string{"Akosua Mensah", "CHILD_0001", "Room B", "Asthma"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected message to contain %q, got %q", want, msg)
		}
	}
}

func TestDiscordNotifier_MissingChannel(t *testing.T) {
	n := NewDiscordNotifier(&fakeSender{}, "")
	if err := n.NotifyCodeExhausted(context.Background(), models.AttendanceQRCode{Code: "QR-1"}); err == nil {
		t.Fatal("expected error for empty channel, got nil")
	}
}

func TestFanout_JoinsErrorsAndStillDelivers(t *testing.T) {
	st := memory.New()
	guardian := uint(42)
	child := models.Child{FirstName: "Kwame", GuardianID: &guardian}
	out := time.Now()
	rec := models.ChildCheckIn{CheckInTime: out.Add(-time.Hour), CheckOutTime: &out}

	broken := NewDiscordNotifier(&fakeSender{err: errors.New("discord down")}, "chan")
	f := Fanout{broken, NewInbox(st)}

	if err := f.NotifyChildCheckOut(context.Background(), child, rec); err == nil {
		t.Fatal("expected joined error from broken notifier")
	}

	list, err := st.ListNotifications(context.Background(), guardian)
	if err != nil {
		t.Fatalf("ListNotifications returned error: %v", err)
	}
	if len(list) != 1 || list[0].Kind != models.NotificationChildCheckOut {
		t.Errorf("expected one check-out notification, got %+v", list)
	}
}

func TestInbox_NoGuardian(t *testing.T) {
	st := memory.New()
	if err := NewInbox(st).NotifyChildCheckIn(context.Background(), models.Child{FirstName: "Ama"}, models.ChildCheckIn{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
