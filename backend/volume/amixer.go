package volume

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"github.com/b0bbywan/go-odio-btmedia/config"
)

const amixerTimeout = 3 * time.Second

var amixerLevel = regexp.MustCompile(`\[(\d{1,3})%\]`)

type runFunc func(ctx context.Context, args ...string) ([]byte, error)

// Amixer drives an ALSA simple control through the amixer command.
type Amixer struct {
	control string
	run     runFunc
}

func NewAmixer(control string) *Amixer {
	if control == "" {
		control = "Master"
	}
	return &Amixer{control: control, run: runAmixer}
}

func runAmixer(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "amixer", args...).Output()
}

func (a *Amixer) Name() string {
	return config.VolumeBackendAmixer
}

func (a *Amixer) Level() (int, error) {
	return a.exec("get", a.control)
}

// Adjust uses amixer relative syntax ("5%+", "5%-").
func (a *Amixer) Adjust(delta int) (int, error) {
	step := fmt.Sprintf("%d%%+", delta)
	if delta < 0 {
		step = fmt.Sprintf("%d%%-", -delta)
	}
	return a.exec("set", a.control, "--", step)
}

func (a *Amixer) Close() {}

func (a *Amixer) exec(args ...string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), amixerTimeout)
	defer cancel()

	out, err := a.run(ctx, args...)
	if err != nil {
		return 0, &MixerError{Backend: a.Name(), Err: err}
	}
	level, err := parseAmixerLevel(out)
	if err != nil {
		return 0, &MixerError{Backend: a.Name(), Err: err}
	}
	return level, nil
}

// parseAmixerLevel returns the first channel level of an amixer report.
func parseAmixerLevel(out []byte) (int, error) {
	m := amixerLevel.FindSubmatch(out)
	if m == nil {
		return 0, errors.New("no volume level in amixer output")
	}
	level, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, err
	}
	return clamp(level), nil
}
