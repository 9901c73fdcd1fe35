// Package tui provides the terminal window for todo.
//
// The window shows a scrolling list of timestamped tasks, a single button
// that reads Start or Stop depending on the producer state, and a help line.
// All list mutations happen on the bubbletea event loop: the producer's
// events are read by a tea.Cmd and delivered to App.Update as messages.
//
// Usage:
//
//	program, app := tui.NewProgram(tui.OptionsFromConfig(cfg))
//	_, err := program.Run()
//
//	// Apply a reloaded configuration while the window is open
//	program.Send(tui.ConfigReloadedMsg{Config: newCfg})
//
// Closing the window (q or Ctrl+C) asks the producer to terminate, then polls
// until it has exited. If it does not exit within the shutdown timeout it is
// force-cancelled and the window closes anyway. Pressing q a second time
// while closing forces the exit immediately.
package tui
