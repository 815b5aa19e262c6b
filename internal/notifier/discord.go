package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/KakraGeek/churchsuitegh/internal/models"
	"github.com/bwmarrin/discordgo"
)

type Notifier interface {
	NotifyChildCheckIn(ctx context.Context, child models.Child, rec models.ChildCheckIn) error
	NotifyChildCheckOut(ctx context.Context, child models.Child, rec models.ChildCheckIn) error
	NotifyCodeExhausted(ctx context.Context, code models.AttendanceQRCode) error
}

// ChannelSender is the part of *discordgo.Session the notifier uses.
type ChannelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   ChannelSender
	channelID string
}

func NewDiscordNotifier(session ChannelSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

func (n *DiscordNotifier) send(message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}
	if _, err := n.session.ChannelMessageSend(n.channelID, message); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}

func (n *DiscordNotifier) NotifyChildCheckIn(_ context.Context, child models.Child, rec models.ChildCheckIn) error {
	var b strings.Builder
	fmt.Fprintf(&b, "🧒 **Child Checked In**\n**Child:** %s %s (%s)\n**Time:** %s",
		child.FirstName, child.LastName, child.Code, rec.CheckInTime.Format("2006-01-02 15:04"))
	if rec.Location != "" {
		fmt.Fprintf(&b, "\n**Room:** %s", rec.Location)
	}
	if child.MedicalNotes != "" {
		fmt.Fprintf(&b, "\n⚕️ **Medical:** %s", child.MedicalNotes)
	}
	if child.EmergencyNotes != "" {
		fmt.Fprintf(&b, "\n🚨 **Emergency:** %s", child.EmergencyNotes)
	}
	return n.send(b.String())
}

func (n *DiscordNotifier) NotifyChildCheckOut(_ context.Context, child models.Child, rec models.ChildCheckIn) error {
	out := "-"
	if rec.CheckOutTime != nil {
		out = rec.CheckOutTime.Format("2006-01-02 15:04")
	}
	return n.send(fmt.Sprintf("👋 **Child Checked Out**\n**Child:** %s %s (%s)\n**Time:** %s",
		child.FirstName, child.LastName, child.Code, out))
}

func (n *DiscordNotifier) NotifyCodeExhausted(_ context.Context, code models.AttendanceQRCode) error {
	limit := 0
	if code.MaxUses != nil {
		limit = *code.MaxUses
	}
	return n.send(fmt.Sprintf("📵 **Check-in code full**\n**Code:** %s\n**Service:** %s %s\n**Uses:** %d/%d",
		code.Code, code.ServiceType, code.ServiceDate.Format("2006-01-02"), code.CurrentUses, limit))
}
