package console

import (
	"fmt"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/pterm/pterm"
)

// UI is the terminal surface the console draws on and reads answers from.
type UI interface {
	Clear()
	Header(text string)
	Section(text string)
	Table(rows [][]string)
	Info(msg string)
	Success(msg string)
	Error(msg string)

	Text(label, def string) (string, error)
	Password(label string) (string, error)
	Select(label string, options []string, def string) (string, error)
	MultiSelect(label string, options, defaults []string) ([]string, error)
	Confirm(label string) (bool, error)
	// Spin shows a busy indicator while fn runs.
	Spin(label string, fn func() error) error
}

// KeyReader returns one keystroke at a time.
type KeyReader interface {
	ReadKey() (string, error)
}

// Named keys returned by KeyReader besides printable runes.
const (
	KeyEnter = "enter"
	KeyQuit  = "ctrl+c"
)

// ─── pterm ───────────────────────────────────────────────────────────────────

// Terminal renders with pterm.
type Terminal struct{}

func (Terminal) Clear() { fmt.Print("\033[H\033[2J") }

func (Terminal) Header(text string) {
	pterm.DefaultHeader.WithFullWidth().Println(text)
}

func (Terminal) Section(text string) { pterm.DefaultSection.Println(text) }

func (Terminal) Table(rows [][]string) {
	if err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(pterm.TableData(rows)).Render(); err != nil {
		pterm.Error.Println(err)
	}
}

func (Terminal) Info(msg string)    { pterm.Info.Println(msg) }
func (Terminal) Success(msg string) { pterm.Success.Println(msg) }

func (Terminal) Error(msg string) {
	pterm.DefaultBox.WithTitle("Error").Println(pterm.Red(msg))
}

func (Terminal) Text(label, def string) (string, error) {
	return pterm.DefaultInteractiveTextInput.WithDefaultValue(def).Show(label)
}

func (Terminal) Password(label string) (string, error) {
	return pterm.DefaultInteractiveTextInput.WithMask("*").Show(label)
}

func (Terminal) Select(label string, options []string, def string) (string, error) {
	p := pterm.DefaultInteractiveSelect.WithOptions(options).WithMaxHeight(10)
	if def != "" {
		p = p.WithDefaultOption(def)
	}
	return p.Show(label)
}

func (Terminal) MultiSelect(label string, options, defaults []string) ([]string, error) {
	return pterm.DefaultInteractiveMultiselect.
		WithOptions(options).
		WithDefaultOptions(defaults).
		WithMaxHeight(10).
		Show(label)
}

func (Terminal) Confirm(label string) (bool, error) {
	return pterm.DefaultInteractiveConfirm.WithDefaultValue(false).Show(label)
}

func (Terminal) Spin(label string, fn func() error) error {
	sp, _ := pterm.DefaultSpinner.Start(label)
	err := fn()
	if sp == nil {
		return err
	}
	if err != nil {
		sp.Fail(err.Error())
	} else {
		sp.Success(label)
	}
	return err
}

// ─── Keyboard ────────────────────────────────────────────────────────────────

// Keyboard reads raw keystrokes from the terminal.
type Keyboard struct{}

// ReadKey blocks until a printable key, Enter or Ctrl+C is pressed.
func (Keyboard) ReadKey() (string, error) {
	var out string
	err := keyboard.Listen(func(k keys.Key) (bool, error) {
		switch k.Code {
		case keys.CtrlC:
			out = KeyQuit
		case keys.Enter:
			out = KeyEnter
		case keys.Space:
			out = " "
		case keys.RuneKey:
			out = string(k.Runes)
		default:
			return false, nil
		}
		return true, nil
	})
	return out, err
}
