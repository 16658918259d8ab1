// Package prompt provides interactive terminal prompts for cmd/cdrstream:
// a promptui.Select wrapper that normalizes Ctrl+C into ErrAborted,
// trimmed to the one prompt cdrstream's CLI actually needs — picking a
// registered type by name when a command is run without a --type flag.
package prompt

import (
	"errors"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

// IsAborted reports whether err represents a user-initiated abort.
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, ErrAborted)
}

// wrapError converts promptui interrupt/abort errors to ErrAborted for
// consistent handling by callers.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, promptui.ErrInterrupt) {
		return ErrAborted
	}
	return err
}

// SelectString prompts the user to select one of items, returning the
// chosen string.
func SelectString(label string, items []string) (string, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
		Size:  10,
	}

	_, result, err := prompt.Run()
	if err != nil {
		return "", wrapError(err)
	}
	return result, nil
}
