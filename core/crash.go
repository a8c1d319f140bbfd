package core

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// Finalizer restores an owned resource, usually the terminal, before a crash report
type Finalizer interface {
	Fini()
}

var (
	crashMu     sync.Mutex
	crashFinal  Finalizer
	crashLogger = zap.NewNop()
)

// SetCrashHandler registers what HandleCrash cleans up and where it logs
func SetCrashHandler(fin Finalizer, log *zap.Logger) {
	crashMu.Lock()
	defer crashMu.Unlock()
	crashFinal = fin
	if log != nil {
		crashLogger = log
	}
}

// HandleCrash finalizes the registered resource, reports the panic and exits
func HandleCrash(r any) {
	if r == nil {
		return
	}
	crashMu.Lock()
	fin, log := crashFinal, crashLogger
	crashMu.Unlock()

	if fin != nil {
		fin.Fini()
	}
	stack := debug.Stack()
	log.Error("crash", zap.Any("panic", r), zap.ByteString("stack", stack))
	_ = log.Sync()

	fmt.Fprintf(os.Stderr, "\n\x1b[31mCRASH DETECTED: %v\x1b[0m\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", stack)
	os.Exit(1)
}

// Go runs fn on a new goroutine; a panic goes through HandleCrash
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
