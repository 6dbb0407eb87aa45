package behaviors

import (
	"context"
	"reflect"

	"go.uber.org/zap"

	"github.com/go-drift/behaviors/pkg/core"
	"github.com/go-drift/behaviors/pkg/logging"
)

// Log writes every lifecycle stage of its host to the package logger at
// debug level.
type Log struct {
	core.Base[core.Host]

	logger *zap.Logger
}

// NewLog creates a Log behavior.
func NewLog() *Log {
	return &Log{}
}

// OnInitialized builds the logger with the host fields and logs the stage.
func (b *Log) OnInitialized() {
	host := b.Host()
	fields := []zap.Field{
		zap.String("host", reflect.TypeOf(host).String()),
		zap.String("member", b.MemberName()),
	}
	if ider, ok := host.(interface{ ID() string }); ok {
		fields = append(fields, zap.String("id", ider.ID()))
	}
	b.logger = logging.Named("lifecycle").With(fields...)
	b.log("OnInitialized")
}

// OnInitializedAsync logs the stage.
func (b *Log) OnInitializedAsync(ctx context.Context) error {
	b.log("OnInitializedAsync")
	return nil
}

// OnParametersSet logs the stage.
func (b *Log) OnParametersSet() {
	b.log("OnParametersSet")
}

// OnParametersSetAsync logs the stage.
func (b *Log) OnParametersSetAsync(ctx context.Context) error {
	b.log("OnParametersSetAsync")
	return nil
}

// OnBeforeRender logs the stage and whether the render happens.
func (b *Log) OnBeforeRender(willRender bool) {
	b.log("OnBeforeRender", zap.Bool("willRender", willRender))
}

// OnAfterRender logs the stage and whether it was the first render.
func (b *Log) OnAfterRender(firstRender bool) {
	b.log("OnAfterRender", zap.Bool("firstRender", firstRender))
}

// OnAfterRenderAsync logs the stage and whether it was the first render.
func (b *Log) OnAfterRenderAsync(ctx context.Context, firstRender bool) error {
	b.log("OnAfterRenderAsync", zap.Bool("firstRender", firstRender))
	return nil
}

// OnHostDisposed logs the stage.
func (b *Log) OnHostDisposed() {
	b.log("OnHostDisposed")
}

func (b *Log) log(stage string, fields ...zap.Field) {
	l := b.logger
	if l == nil {
		l = logging.Named("lifecycle")
	}
	l.Debug(stage, fields...)
}
