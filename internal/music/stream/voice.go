package stream

import (
	"context"
	"fmt"
	"io"

	"everybot/internal/logging"
	"everybot/internal/music/player"
	"everybot/internal/music/queue"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"layeh.com/gopus"
)

// Voice plays PCM streams over the session's voice connections. Every track
// gets its own Opus encoder, so guilds never share encoder state.
type Voice struct {
	session *discordgo.Session
	log     zerolog.Logger
}

func NewVoice(s *discordgo.Session) *Voice {
	return &Voice{session: s, log: logging.For("voice")}
}

// Join connects to channelID, moving the bot if it is elsewhere in the guild.
func (v *Voice) Join(ctx context.Context, guildID, channelID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.ChannelID(guildID) == channelID {
		return nil
	}
	if _, err := v.session.ChannelVoiceJoin(guildID, channelID, false, true); err != nil {
		return fmt.Errorf("join voice channel %s: %w", channelID, err)
	}
	v.log.Info().Str("guild", guildID).Str("channel", channelID).Msg("Joined voice channel")
	return nil
}

func (v *Voice) Play(ctx context.Context, guildID string, src io.ReadCloser, volume float64, onEnd func()) (queue.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vc := v.ready(guildID)
	if vc == nil {
		return nil, player.ErrNotConnected
	}

	enc, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("create opus encoder: %w", err)
	}

	send := func(pcm []int16, stop <-chan struct{}) bool {
		frame, err := enc.Encode(pcm, frameSize, maxOpusBytes)
		if err != nil {
			v.log.Error().Err(err).Str("guild", guildID).Msg("Opus encode failed")
			return false
		}
		select {
		case vc.OpusSend <- frame:
			return true
		case <-stop:
			return false
		}
	}

	if err := vc.Speaking(true); err != nil {
		v.log.Debug().Err(err).Str("guild", guildID).Msg("Could not set speaking state")
	}

	t := newTrack(volume)
	go t.run(src, send, onEnd)
	return t, nil
}

// Leave disconnects from the guild's voice channel. Not being connected is
// not an error.
func (v *Voice) Leave(ctx context.Context, guildID string) error {
	vc := v.connection(guildID)
	if vc == nil {
		return nil
	}
	if err := vc.Disconnect(); err != nil {
		return fmt.Errorf("disconnect voice: %w", err)
	}
	return nil
}

// Connected reports whether the bot has a voice connection in the guild.
func (v *Voice) Connected(guildID string) bool {
	return v.connection(guildID) != nil
}

// ChannelID returns the voice channel the bot is in, or "".
func (v *Voice) ChannelID(guildID string) string {
	vc := v.connection(guildID)
	if vc == nil {
		return ""
	}
	vc.RLock()
	defer vc.RUnlock()
	return vc.ChannelID
}

func (v *Voice) connection(guildID string) *discordgo.VoiceConnection {
	v.session.RLock()
	defer v.session.RUnlock()
	return v.session.VoiceConnections[guildID]
}

func (v *Voice) ready(guildID string) *discordgo.VoiceConnection {
	vc := v.connection(guildID)
	if vc == nil {
		return nil
	}
	vc.RLock()
	defer vc.RUnlock()
	if !vc.Ready {
		return nil
	}
	return vc
}
