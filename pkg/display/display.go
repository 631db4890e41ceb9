// Package display abstracts the little status screen used during scans.
// Display problems never fail an operation; implementations log and move on.
package display

import (
	"fmt"

	"github.com/jarvispi/go-jarvis/internal/log"
)

// Notifier receives short status lines at a row/column position.
type Notifier interface {
	WriteLine(row, col int, text string)
	Clear()
}

// Nop discards everything. Used when no display is configured.
type Nop struct{}

func (Nop) WriteLine(int, int, string) {}
func (Nop) Clear()                     {}

// Log writes display lines to the structured log at debug level. Handy in
// simulation mode and on headless units.
type Log struct{}

func (Log) WriteLine(row, col int, text string) {
	log.Component("display").Debug("display", "pos", fmt.Sprintf("%d,%d", row, col), "text", text)
}

func (Log) Clear() {
	log.Component("display").Debug("display cleared")
}
