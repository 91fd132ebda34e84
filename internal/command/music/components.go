package music

import (
	"fmt"
	"unicode/utf8"

	"everybot/internal/music/queue"

	"github.com/bwmarrin/discordgo"
)

const (
	controlsPrefix = "music"

	buttonPause       = controlsPrefix + "_pause"
	buttonResume      = controlsPrefix + "_resume"
	buttonSkip        = controlsPrefix + "_skip"
	buttonStop        = controlsPrefix + "_stop"
	queueSelectMenuID = controlsPrefix + "_queue_select"

	// Discord limits select menus to 25 options and labels to 100 characters.
	maxSelectOptions = 25
	maxLabelLength   = 100
)

// controls builds the playback buttons and, when songs are waiting, a menu
// listing them.
func controls(paused bool, upcoming []queue.Song) []discordgo.MessageComponent {
	toggle := discordgo.Button{Label: "Pause", Style: discordgo.PrimaryButton, CustomID: buttonPause, Emoji: &discordgo.ComponentEmoji{Name: "⏸️"}}
	if paused {
		toggle = discordgo.Button{Label: "Resume", Style: discordgo.SuccessButton, CustomID: buttonResume, Emoji: &discordgo.ComponentEmoji{Name: "▶️"}}
	}

	rows := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			toggle,
			discordgo.Button{Label: "Skip", Style: discordgo.SecondaryButton, CustomID: buttonSkip, Emoji: &discordgo.ComponentEmoji{Name: "⏭️"}},
			discordgo.Button{Label: "Stop", Style: discordgo.DangerButton, CustomID: buttonStop, Emoji: &discordgo.ComponentEmoji{Name: "⏹️"}},
		}},
	}
	if len(upcoming) > 0 {
		rows = append(rows, queueMenu(upcoming))
	}
	return rows
}

// disabledControls is shown once playback has ended for good.
func disabledControls() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Pause", Style: discordgo.PrimaryButton, CustomID: buttonPause, Disabled: true, Emoji: &discordgo.ComponentEmoji{Name: "⏸️"}},
			discordgo.Button{Label: "Skip", Style: discordgo.SecondaryButton, CustomID: buttonSkip, Disabled: true, Emoji: &discordgo.ComponentEmoji{Name: "⏭️"}},
			discordgo.Button{Label: "Stop", Style: discordgo.DangerButton, CustomID: buttonStop, Disabled: true, Emoji: &discordgo.ComponentEmoji{Name: "⏹️"}},
		}},
	}
}

func queueMenu(upcoming []queue.Song) discordgo.ActionsRow {
	shown := upcoming[:min(len(upcoming), maxSelectOptions)]

	options := make([]discordgo.SelectMenuOption, 0, len(shown))
	for i, s := range shown {
		desc := fmt.Sprintf("#%d", i+1)
		if s.Duration != "" {
			desc += " · " + s.Duration
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       truncate(s.Title, maxLabelLength),
			Value:       fmt.Sprintf("queue_%d", i),
			Description: truncate(desc, maxLabelLength),
		})
	}

	placeholder := fmt.Sprintf("Up next (%d)", len(upcoming))
	if len(upcoming) > len(shown) {
		placeholder = fmt.Sprintf("Up next (%d of %d)", len(shown), len(upcoming))
	}

	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			MenuType:    discordgo.StringSelectMenu,
			CustomID:    queueSelectMenuID,
			Placeholder: placeholder,
			Options:     options,
		},
	}}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
