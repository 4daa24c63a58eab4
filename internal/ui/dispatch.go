package ui

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Command is one user action, e.g. "send", "txn.next" or "view".
type Command struct {
	Name  string
	Usage string
	Run   func(ctx context.Context, args []string) error
}

// ErrUnknownCommand is returned when no command is registered under Name.
type ErrUnknownCommand struct {
	Name string
}

func (e *ErrUnknownCommand) Error() string {
	return fmt.Sprintf("unknown command %q", e.Name)
}

// Dispatcher routes named user actions to the controllers.
type Dispatcher struct {
	mu       sync.RWMutex
	commands map[string]Command
	logger   *zap.Logger
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{commands: make(map[string]Command), logger: logger}
}

// Register adds cmd, replacing any command with the same name.
func (d *Dispatcher) Register(cmd Command) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands[cmd.Name] = cmd
}

// Dispatch runs the command registered under name.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args []string) error {
	d.mu.RLock()
	cmd, ok := d.commands[name]
	d.mu.RUnlock()
	if !ok {
		return &ErrUnknownCommand{Name: name}
	}

	d.logger.Debug("dispatch", zap.String("command", name), zap.Int("args", len(args)))
	return cmd.Run(ctx, args)
}

// Commands lists the registered commands by name.
func (d *Dispatcher) Commands() []Command {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Command, 0, len(d.commands))
	for _, c := range d.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
