package play

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/audiolibrelab/duocap/internal/wav"
)

// Player plays finished recordings through whatever audio player is
// installed.
type Player struct{}

func New() *Player {
	return &Player{}
}

// Play plays the WAV file at path after sanity-checking its container.
func (p *Player) Play(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("recording not found: %s", path)
	}
	if !wav.IsValid(data) {
		return fmt.Errorf("%w: %s", wav.ErrInvalidContainer, path)
	}

	fmt.Printf("Playing: %s (%s)\n", path, wav.Duration(data))

	player, err := p.findAudioPlayer()
	if err != nil {
		return fmt.Errorf("no suitable audio player found: %w", err)
	}

	var cmd *exec.Cmd
	switch player {
	case "mpv":
		cmd = exec.Command("mpv", "--no-video", path)
	case "ffplay":
		cmd = exec.Command("ffplay", "-nodisp", "-autoexit", path)
	case "aplay":
		cmd = exec.Command("aplay", path)
	default:
		return fmt.Errorf("unsupported player: %s", player)
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("playback failed with %s: %w", player, err)
	}

	fmt.Println("Playback completed")
	return nil
}

func (p *Player) findAudioPlayer() (string, error) {
	// Preferred players in order
	players := []string{"mpv", "ffplay", "aplay"}

	for _, player := range players {
		if _, err := exec.LookPath(player); err == nil {
			return player, nil
		}
	}

	return "", fmt.Errorf("no audio player found (tried: %s)", strings.Join(players, ", "))
}
