// Package traceui renders a live, read-only view of the simulator's
// register file and trace log while a program runs. Grounded on the
// teacher's debugger/tui.go, which pairs tview panels with a tcell screen
// to show registers/disassembly/memory side by side; this is a much
// smaller single-page cousin of that layout with no breakpoint or
// stepping controls, since an interactive debugger is out of scope here
// (see DESIGN.md).
package traceui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Viewer is an io.Writer that feeds a scrolling trace pane, paired with a
// register panel that UpdateRegisters refreshes between instructions.
type Viewer struct {
	app      *tview.Application
	regsView *tview.TextView
	pcView   *tview.TextView
	traceLog *tview.TextView

	mu sync.Mutex
}

// New builds a Viewer with the teacher's three-pane layout (registers, PC,
// scrolling trace) collapsed into a single flex row, since RV32IM has no
// CPSR/banked-register complexity to dedicate a whole panel to.
func New() *Viewer {
	v := &Viewer{
		app:      tview.NewApplication(),
		regsView: tview.NewTextView().SetDynamicColors(true),
		pcView:   tview.NewTextView().SetDynamicColors(true),
		traceLog: tview.NewTextView().SetDynamicColors(true).SetScrollable(true),
	}
	v.regsView.SetBorder(true).SetTitle(" registers ")
	v.pcView.SetBorder(true).SetTitle(" pc ")
	v.traceLog.SetBorder(true).SetTitle(" trace ")
	v.traceLog.SetChangedFunc(func() { v.app.Draw() })

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.pcView, 3, 0, false).
		AddItem(v.regsView, 0, 1, false)

	root := tview.NewFlex().
		AddItem(left, 36, 0, false).
		AddItem(v.traceLog, 0, 2, true)

	v.app.SetRoot(root, true)
	v.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Rune() == 'q' {
			v.app.Stop()
			return nil
		}
		return event
	})

	return v
}

// Write implements io.Writer, appending trace text to the scrolling log.
// It satisfies rv32.Engine.Trace so a Viewer can be handed directly to an
// Engine as its trace sink.
func (v *Viewer) Write(p []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprint(v.traceLog, tview.Escape(string(p)))
	return len(p), nil
}

// UpdateRegisters redraws the register panel from the given 32-entry
// register file and program counter.
func (v *Viewer) UpdateRegisters(regs [32]int32, pc uint32) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.pcView.SetText(fmt.Sprintf("%08x", pc))

	var b strings.Builder
	for i := 0; i < 32; i += 2 {
		fmt.Fprintf(&b, "x%-2d %08x   x%-2d %08x\n", i, uint32(regs[i]), i+1, uint32(regs[i+1]))
	}
	v.regsView.SetText(b.String())

	v.app.QueueUpdateDraw(func() {})
}

// Run blocks until the user quits the viewer (Esc or 'q'). Callers
// typically run the simulation in a goroutine that periodically calls
// UpdateRegisters and writes to the Viewer, then call Run on the main
// goroutine, the same split the teacher's tui.Run/VM.Step loop uses.
func (v *Viewer) Run() error {
	return v.app.Run()
}

// Stop requests the viewer's event loop to exit, for use by a driver that
// wants to close the TUI once the simulated program exits.
func (v *Viewer) Stop() {
	v.app.Stop()
}

var _ io.Writer = (*Viewer)(nil)
