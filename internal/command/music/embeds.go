package music

import (
	"fmt"
	"math"
	"strings"

	"everybot/internal/bot"
	"everybot/internal/music/player"
	"everybot/internal/music/queue"
	st "everybot/internal/storagetypes"
	"everybot/pkg/util"

	"github.com/bwmarrin/discordgo"
)

const (
	queuePageSize    = 10
	nowPlayingColor  = 0x1db954
	notFoundMessage  = "Could not find or play that track"
	nothingToSkip    = "Nothing to skip"
	nothingPlaying   = "Nothing is playing right now."
	queueEmptyNotice = "Queue is now empty"
)

func songLink(s queue.Song) string {
	if s.URL == "" {
		return s.Title
	}
	return fmt.Sprintf("[%s](%s)", s.Title, s.URL)
}

func nowPlayingEmbed(s queue.Song) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       player.StatusPlaying.StringEmoji() + " Now Playing",
		Description: songLink(s),
		Color:       nowPlayingColor,
	}
	if s.Duration != "" {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Duration", Value: s.Duration, Inline: true})
	}
	if s.Requester != "" {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Requested by", Value: s.Requester, Inline: true})
	}
	return e
}

// statusEmbed is the now-playing embed extended with the guild's playback
// settings.
func statusEmbed(snap queue.Snapshot, status player.PlayerStatus) *discordgo.MessageEmbed {
	e := nowPlayingEmbed(*snap.Current)
	if status == player.StatusPaused {
		e.Title = status.StringEmoji() + " Paused"
	}
	e.Fields = append(e.Fields,
		&discordgo.MessageEmbedField{Name: "Loop", Value: snap.LoopMode.Emoji() + " " + snap.LoopMode.String(), Inline: true},
		&discordgo.MessageEmbedField{Name: "Volume", Value: fmt.Sprintf("%d%%", volumePercent(snap.Volume)), Inline: true},
		&discordgo.MessageEmbedField{Name: "Up next", Value: fmt.Sprint(len(snap.Pending)), Inline: true},
	)
	return e
}

func addedEmbed(s queue.Song, position int) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       "✅ Added to queue",
		Description: songLink(s),
		Color:       bot.EmbedColor,
	}
	if s.Duration != "" {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Duration", Value: s.Duration, Inline: true})
	}
	e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Position", Value: fmt.Sprintf("#%d", position), Inline: true})
	return e
}

// queuePages returns the number of pages needed for n pending songs.
func queuePages(n int) int {
	if n == 0 {
		return 1
	}
	return (n + queuePageSize - 1) / queuePageSize
}

// queueEmbed renders one page of the pending list. Out of range pages are
// clamped.
func queueEmbed(snap queue.Snapshot, page int) *discordgo.MessageEmbed {
	total := queuePages(len(snap.Pending))
	page = max(1, min(page, total))

	var sb strings.Builder
	if snap.Current != nil {
		fmt.Fprintf(&sb, "**Now playing:** %s%s\n\n", songLink(*snap.Current), durationSuffix(*snap.Current))
	}
	if len(snap.Pending) == 0 {
		sb.WriteString("The queue is empty.")
	} else {
		start := (page - 1) * queuePageSize
		end := min(start+queuePageSize, len(snap.Pending))
		for i, s := range snap.Pending[start:end] {
			fmt.Fprintf(&sb, "**%d.** %s%s\n", start+i+1, songLink(s), durationSuffix(s))
		}
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("📋 Queue (%d/%d)", page, total),
		Description: sb.String(),
		Color:       bot.EmbedColor,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d song(s) · loop %s · volume %d%%", len(snap.Pending), snap.LoopMode, volumePercent(snap.Volume)),
		},
	}
}

func durationSuffix(s queue.Song) string {
	if s.Duration == "" {
		return ""
	}
	return " `" + s.Duration + "`"
}

func historyEmbed(tracks []st.TrackHistory) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title: "🕘 Recently played",
		Color: bot.EmbedColor,
	}
	if len(tracks) == 0 {
		e.Description = "Nothing has been played here yet."
		return e
	}

	var sb strings.Builder
	for i := len(tracks) - 1; i >= 0; i-- {
		t := tracks[i]
		fmt.Fprintf(&sb, "`%s` %s", util.FormatDateTpl(t.PlayedAt, "DD.MM hh:mm"), songLink(queue.Song{Title: t.Title, URL: t.URL}))
		if t.Requester != "" {
			fmt.Fprintf(&sb, " · %s", t.Requester)
		}
		sb.WriteString("\n")
	}
	e.Description = sb.String()
	return e
}

// skipMessage describes the outcome of a successful skip.
func skipMessage(skipped, next queue.Song, ok bool) string {
	if ok {
		return fmt.Sprintf("⏭️ Skipped **%s** → **%s**", skipped.Title, next.Title)
	}
	return fmt.Sprintf("⏭️ Skipped **%s**. %s.", skipped.Title, queueEmptyNotice)
}

// volumeFromPercent converts a 0-100 user value to the store's [0, 1] range.
func volumeFromPercent(level int64) (float64, error) {
	if level < 0 || level > 100 {
		return 0, fmt.Errorf("volume must be between 0 and 100, got %d", level)
	}
	return float64(level) / 100, nil
}

func volumePercent(v float64) int {
	return int(math.Round(v * 100))
}
