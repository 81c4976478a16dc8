package infra

import (
	"fmt"
	"io"
	"path"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// References:
// https://github.com/pkg/errors/blob/master/stack.go

type Frame uintptr

func (frame Frame) pc() uintptr {
	return uintptr(frame) - 1
}

func (frame Frame) fileLine() (string, int) {
	fn := runtime.FuncForPC(frame.pc())
	if fn == nil {
		return "unknownFile", 0
	}
	return fn.FileLine(frame.pc())
}

func (frame Frame) name() string {
	fn := runtime.FuncForPC(frame.pc())
	if fn == nil {
		return "unknownFunc"
	}
	return fn.Name()
}

// Format characters:
// %s - source file
// %d - source line
// %n - function name
// %v - equivalent to %s:%d
// %+s - function name and full path, separated by \n\t
// %+v - equivalent to %+s:%d
func (frame Frame) Format(s fmt.State, verb rune) {
	file, line := frame.fileLine()
	switch verb {
	case 's':
		if s.Flag('+') {
			_, _ = io.WriteString(s, frame.name())
			_, _ = io.WriteString(s, "\n\t")
			_, _ = io.WriteString(s, file)
		} else {
			_, _ = io.WriteString(s, path.Base(file))
		}
	case 'd':
		_, _ = io.WriteString(s, strconv.Itoa(line))
	case 'n':
		_, _ = io.WriteString(s, funcName(frame.name()))
	case 'v':
		frame.Format(s, 's')
		_, _ = io.WriteString(s, ":")
		frame.Format(s, 'd')
	}
}

func (frame Frame) MarshalText() ([]byte, error) {
	name := frame.name()
	if name == "unknownFunc" {
		return []byte("unknownFrame"), nil
	}
	file, line := frame.fileLine()
	builder := strings.Builder{}
	_, _ = builder.WriteString(name)
	_, _ = builder.WriteString(" ")
	_, _ = builder.WriteString(file)
	_, _ = builder.WriteString(":")
	_, _ = builder.WriteString(strconv.Itoa(line))
	return []byte(builder.String()), nil
}

func funcName(name string) string {
	i := strings.LastIndex(name, "/")
	name = name[i+1:]
	i = strings.Index(name, ".")
	return name[i+1:]
}

func callerFrame(skip int) Frame {
	var pcs [1]uintptr
	if runtime.Callers(skip+2, pcs[:]) < 1 {
		return Frame(0)
	}
	return Frame(pcs[0])
}

// ErrorStack keeps the frame where an error was raised and every error
// merged into it. It can be inlined into a zap entry as structured fields.
type ErrorStack interface {
	error
	zapcore.ObjectMarshaler
	Unwrap() []error
	Frame() Frame
}

var _ ErrorStack = (*errorStack)(nil)

type errorStack struct {
	msg   string
	errs  error // multierr combined
	frame Frame
}

func (es *errorStack) Error() string {
	if es.errs == nil {
		return es.msg
	}
	if len(es.msg) == 0 {
		return es.errs.Error()
	}
	return es.msg + ": " + es.errs.Error()
}

func (es *errorStack) Unwrap() []error {
	return multierr.Errors(es.errs)
}

func (es *errorStack) Frame() Frame {
	return es.frame
}

func (es *errorStack) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	if len(es.msg) > 0 {
		enc.AddString("error", es.msg)
	}
	enc.AddString("errorAt", fmt.Sprintf("%v", es.frame))
	errs := multierr.Errors(es.errs)
	if len(errs) <= 0 {
		return nil
	}
	return enc.AddArray("errorStack", zapcore.ArrayMarshalerFunc(func(arr zapcore.ArrayEncoder) error {
		for _, err := range errs {
			arr.AppendString(err.Error())
		}
		return nil
	}))
}

func NewErrorStack(msg string) error {
	return &errorStack{
		msg:   msg,
		frame: callerFrame(1),
	}
}

// WrapErrorStack returns nil if err is nil.
func WrapErrorStack(err error) error {
	if err == nil {
		return nil
	}
	return &errorStack{
		errs:  err,
		frame: callerFrame(1),
	}
}

// WrapErrorStackWithMessage returns nil if err is nil.
func WrapErrorStackWithMessage(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &errorStack{
		msg:   msg,
		errs:  err,
		frame: callerFrame(1),
	}
}

// AppendErrorStack merges more errors into an existing error stack, or
// creates a new one.
func AppendErrorStack(err error, errs ...error) error {
	merged := multierr.Combine(errs...)
	if merged == nil {
		return err
	}
	if es, ok := err.(*errorStack); ok && es != nil {
		es.errs = multierr.Append(es.errs, merged)
		return es
	}
	return &errorStack{
		errs:  multierr.Append(err, merged),
		frame: callerFrame(1),
	}
}
