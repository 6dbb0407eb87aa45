package errors

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"
)

var (
	handlerMu sync.RWMutex
	handler   ErrorHandler = &LogHandler{}
)

// Handler returns the global error handler.
func Handler() ErrorHandler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return handler
}

// SetHandler installs h as the global error handler and returns the previous
// one. Nil restores a LogHandler.
func SetHandler(h ErrorHandler) ErrorHandler {
	if h == nil {
		h = &LogHandler{}
	}
	handlerMu.Lock()
	defer handlerMu.Unlock()
	prev := handler
	handler = h
	return prev
}

// Report sends err to the global handler, stamping it if needed.
func Report(err *BehaviorError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	Handler().HandleError(err)
}

// ReportPanic sends err to the global handler, stamping it if needed.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	Handler().HandlePanic(err)
}

// Recover reports a panic of the calling goroutine and stops it from
// unwinding further. It must be deferred directly:
//
//	defer errors.Recover("behaviors.Timer.deliver")
func Recover(op string) {
	if r := recover(); r != nil {
		ReportPanic(newPanicError(op, r))
	}
}

// RecoverWithCallback is Recover followed by callback(r), which lets the
// caller substitute a result for the panicking call.
func RecoverWithCallback(op string, callback func(r any)) {
	if r := recover(); r != nil {
		ReportPanic(newPanicError(op, r))
		if callback != nil {
			callback(r)
		}
	}
}

func newPanicError(op string, r any) *PanicError {
	return &PanicError{
		Op:         op,
		Value:      r,
		StackTrace: CaptureStack(),
		Timestamp:  time.Now(),
	}
}

// maxStackDepth bounds the frames kept by CaptureStack.
const maxStackDepth = 32

// CaptureStack returns the stack of the calling goroutine, one
// "function\n\tfile:line" entry per frame. Leading frames of the runtime and
// of this package are dropped, so a stack captured during recovery starts at
// the code that panicked.
func CaptureStack() string {
	var pcs [maxStackDepth + 8]uintptr
	n := runtime.Callers(2, pcs[:])
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	leading := true
	for kept := 0; kept < maxStackDepth; {
		frame, more := frames.Next()
		if leading && internalFrame(frame.Function) && more {
			continue
		}
		leading = false
		fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		kept++
		if !more {
			break
		}
	}
	return sb.String()
}

var selfPackage = func() string {
	pc, _, _, _ := runtime.Caller(0)
	name := runtime.FuncForPC(pc).Name()
	slash := strings.LastIndex(name, "/")
	dot := strings.Index(name[slash+1:], ".")
	return name[:slash+1+dot+1]
}()

func internalFrame(function string) bool {
	return strings.HasPrefix(function, "runtime.") || strings.HasPrefix(function, selfPackage)
}
