package xmldiffview

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result is the annotated merge tree produced by one Load call, together with
// the operation registry needed to correlate moves.
type Result struct {
	Document   *Node
	Registry   *Registry
	Options    Options
	Fragments  bool
	SrcDocHash string
}

// Merger applies diffgrams to baseline documents. A Merger holds no per-merge
// state and may be reused; each Load runs in its own session.
type Merger struct {
	log *zap.Logger
}

// MergerOption configures a Merger.
type MergerOption func(*Merger)

// WithLogger sets the logger used for debug tracing of merge sessions.
func WithLogger(log *zap.Logger) MergerOption {
	return func(m *Merger) {
		if log != nil {
			m.log = log
		}
	}
}

// NewMerger returns a Merger with the given options applied.
func NewMerger(opts ...MergerOption) *Merger {
	m := &Merger{log: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Patch applies diffgramXML to baselineXML.
func Patch(baselineXML, diffgramXML string) (*Result, error) {
	return NewMerger().Load(strings.NewReader(baselineXML), strings.NewReader(diffgramXML))
}

// Load reads the diffgram and the baseline and returns the annotated merge
// tree. Both readers are consumed once; closing them is up to the caller.
func (m *Merger) Load(baseline, diffgram io.Reader) (*Result, error) {
	s := newSession(m.log)

	dg, err := ParseDiffgram(diffgram)
	if err != nil {
		return nil, err
	}
	s.opts = dg.Options
	s.log.Debug("diffgram parsed", zap.Stringer("options", dg.Options), zap.Bool("fragments", dg.Fragments))

	doc, err := LoadBaseline(baseline, dg.Options, dg.Fragments)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline: %w", err)
	}
	doc.CreateSourceNodesIndex()

	if err := s.seed(dg); err != nil {
		return nil, err
	}
	if err := s.apply(doc, dg.root, true); err != nil {
		return nil, err
	}

	s.log.Debug("merge complete",
		zap.Int("directives", s.directives),
		zap.Int("descriptors", len(s.registry.descriptors)),
		zap.Int("nextOpID", s.nextOpID))

	return &Result{
		Document:   doc,
		Registry:   s.registry,
		Options:    dg.Options,
		Fragments:  dg.Fragments,
		SrcDocHash: dg.SrcDocHash,
	}, nil
}

// session is the state of a single merge: the registry and the opid counter.
type session struct {
	log        *zap.Logger
	opts       Options
	registry   *Registry
	nextOpID   int
	directives int
}

func newSession(log *zap.Logger) *session {
	return &session{
		log:      log.With(zap.String("session", uuid.NewString())),
		registry: newRegistry(),
		nextOpID: 1,
	}
}

// seed declares the diffgram's descriptors and moves the opid counter past
// every explicit opid, so allocated ids never collide with declared ones.
func (s *session) seed(dg *Diffgram) error {
	descriptors, err := dg.Descriptors()
	if err != nil {
		return err
	}
	for _, d := range descriptors {
		if err := s.registry.declare(d.ID, d.Kind); err != nil {
			return err
		}
		s.log.Debug("descriptor", zap.Int("opid", d.ID), zap.Stringer("kind", d.Kind))
	}
	max, err := dg.maxOpID()
	if err != nil {
		return err
	}
	s.nextOpID = max + 1
	return nil
}

// opID returns the directive's explicit opid, or allocates the next one.
func (s *session) opID(d *Node) (int, error) {
	v, ok := attrValue(d, "opid")
	if !ok {
		id := s.nextOpID
		s.nextOpID++
		return id, nil
	}
	id, err := parseOpID(v)
	if err != nil {
		return 0, err
	}
	if id >= s.nextOpID {
		s.nextOpID = id + 1
	}
	return id, nil
}

// text applies the whitespace option to a value taken from the diffgram.
func (s *session) text(v string) string {
	if s.opts.IgnoreWhitespace {
		return normalizeSpace(v)
	}
	return v
}
