package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wrapped/pkg/render"
	"wrapped/pkg/stage"
)

// Capturer rasterizes a mounted stage.
type Capturer interface {
	Capture(ctx context.Context, s *stage.Stage) (render.CaptureResult, error)
}

// Pipeline is the single-export primitive shared by Controller and Batch:
// acquire a stage, mount, settle, capture, release.
type Pipeline struct {
	doc      *stage.Document
	capturer Capturer
	settler  Settler
	width    int
	height   int
	log      zerolog.Logger
}

type PipelineOption func(*Pipeline)

// WithSettler replaces the default fixed settle delay.
func WithSettler(s Settler) PipelineOption {
	return func(p *Pipeline) { p.settler = s }
}

// WithSize overrides the canonical story size.
func WithSize(width, height int) PipelineOption {
	return func(p *Pipeline) { p.width, p.height = width, height }
}

func WithLogger(log zerolog.Logger) PipelineOption {
	return func(p *Pipeline) { p.log = log }
}

func NewPipeline(doc *stage.Document, capturer Capturer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		doc:      doc,
		capturer: capturer,
		settler:  FixedDelay(DefaultSettleDelay),
		width:    StoryWidth,
		height:   StoryHeight,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Document is the host the pipeline acquires stages from.
func (p *Pipeline) Document() *stage.Document { return p.doc }

// Export renders u into a capture. The stage is released before Export
// returns on every path.
//
// ctx is only consulted before the stage is acquired: once started, an
// export runs to completion.
func (p *Pipeline) Export(ctx context.Context, u Unit) (render.CaptureResult, error) {
	if u.Payload == nil {
		return render.CaptureResult{}, fmt.Errorf("export %s: %w", u.ID, ErrUnknownUnit)
	}
	if err := ctx.Err(); err != nil {
		return render.CaptureResult{}, err
	}
	run := context.WithoutCancel(ctx)

	attempt := uuid.NewString()
	log := p.log.With().Str("unit", u.ID).Str("attempt", attempt[:8]).Logger()
	start := time.Now()

	var result render.CaptureResult
	err := p.doc.With(run, p.width, p.height, func(s *stage.Stage) error {
		if err := u.Payload.Mount(run, s); err != nil {
			return err
		}
		if err := p.settler.Settle(run, s); err != nil {
			log.Warn().Err(err).Msg("settle incomplete, capturing anyway")
		}
		var err error
		result, err = p.capturer.Capture(run, s)
		return err
	})
	if err != nil {
		log.Warn().Err(err).Dur("took", time.Since(start)).Msg("export failed")
		return render.CaptureResult{}, fmt.Errorf("export %s: %w", u.ID, err)
	}
	log.Info().Dur("took", time.Since(start)).Int("bytes", len(result.EncodedImage)).Msg("export complete")
	return result, nil
}
