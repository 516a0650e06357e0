package vorbis

import (
	"bytes"

	"github.com/optivorbis/optivorbis-go/bitpack"
)

// errRewriteBeforeAnalysisComplete is the panic value used when
// OptimizePacket is called before AnalyzePacket has reached its terminal
// state — a contract violation, not a data error, per §4.6.
const errRewriteBeforeAnalysisComplete = "vorbis: OptimizePacket called before analysis completed"

// OptimizerSettings configures an Optimizer's comment-header rewrite and
// the strictness of its setup-header parsing.
type OptimizerSettings struct {
	Comment CommentRewriteSettings

	// Debug enables the setup-header parser's debug-only checks (codebook
	// sync pattern, framing bits) — see ParseSetupHeader.
	Debug bool
}

// Optimizer drives one logical Vorbis stream through the two-pass
// analyze/rewrite state machine (§4.6): CommentHeaderParse →
// SetupHeaderParse → AudioPacketAnalyze, then, on the first rewrite call,
// IdentificationHeaderCopy → CommentHeaderCopy → SetupHeaderRewrite →
// AudioPacketRewrite. Each half advances through its own state field
// independently; an Optimizer is driven entirely by its own
// AnalyzePacket/OptimizePacket methods, never both passes interleaved.
type Optimizer struct {
	settings OptimizerSettings
	ident    IdentificationData

	comment   CommentData
	setup     *SetupData
	codebooks []*Codebook

	analyzeState analyzeState
	rewriteState rewriteState
}

// NewOptimizer constructs an Optimizer for one logical stream whose
// identification header has already been parsed (and, if a mangler
// overrides sampling frequency or bitrates, already mutated) into ident.
func NewOptimizer(settings OptimizerSettings, ident IdentificationData) *Optimizer {
	return &Optimizer{
		settings:     settings,
		ident:        ident,
		analyzeState: commentHeaderParseState{},
	}
}

// AnalyzePacket feeds the next packet (in source order, starting with the
// comment header) to pass 1. blocksize is non-nil only for a kept audio
// packet.
func (o *Optimizer) AnalyzePacket(packet []byte) (blocksize *uint32, err error) {
	blocksize, next, err := o.analyzeState.analyze(o, packet)
	if err != nil {
		return nil, err
	}
	o.analyzeState = next
	return blocksize, nil
}

// OptimizePacket feeds the next packet (in source order, starting with the
// identification header) to pass 2, force-transitioning into the rewrite
// state machine on the first call. discard reports a packet the optimizer
// has determined should be dropped from the output stream entirely.
func (o *Optimizer) OptimizePacket(packet []byte) (output []byte, blocksize *uint32, discard bool, err error) {
	if o.rewriteState == nil {
		if _, done := o.analyzeState.(audioPacketAnalyzeState); !done {
			panic(errRewriteBeforeAnalysisComplete)
		}
		o.rewriteState = identificationHeaderCopyState{}
	}

	output, blocksize, discard, next, err := o.rewriteState.rewrite(o, packet)
	if err != nil {
		return nil, nil, false, err
	}
	o.rewriteState = next
	return output, blocksize, discard, nil
}

// analyzeState is pass 1's state-pattern interface: one packet in, the
// blocksize of a kept audio packet (else nil), the next state, or an
// error.
type analyzeState interface {
	analyze(o *Optimizer, packet []byte) (blocksize *uint32, next analyzeState, err error)
}

// rewriteState is pass 2's state-pattern interface: one packet in, the
// rewritten packet's bytes (nil if discard is true), the kept audio
// packet's blocksize (else nil), a discard flag, the next state, or an
// error.
type rewriteState interface {
	rewrite(o *Optimizer, packet []byte) (output []byte, blocksize *uint32, discard bool, next rewriteState, err error)
}

type commentHeaderParseState struct{}

func (commentHeaderParseState) analyze(o *Optimizer, packet []byte) (*uint32, analyzeState, error) {
	comment, err := ParseCommentHeader(packet)
	if err != nil {
		return nil, nil, err
	}
	o.comment = comment
	return nil, setupHeaderParseState{}, nil
}

type setupHeaderParseState struct{}

func (setupHeaderParseState) analyze(o *Optimizer, packet []byte) (*uint32, analyzeState, error) {
	setup, err := ParseSetupHeader(packet, int(o.ident.Channels), o.settings.Debug)
	if err != nil {
		return nil, nil, err
	}

	codebooks := make([]*Codebook, len(setup.Codebooks))
	for i, cfg := range setup.Codebooks {
		cb, err := NewCodebook(cfg)
		if err != nil {
			return nil, nil, err
		}
		codebooks[i] = cb
	}

	o.setup = setup
	o.codebooks = codebooks
	return nil, audioPacketAnalyzeState{}, nil
}

// audioPacketAnalyzeState is pass 1's terminal state: every remaining
// packet is an audio packet, walked purely for its codebook-usage
// tallying side effect (Codebook.DecodeEntryNumber tallies automatically
// while recording) and its blocksize.
type audioPacketAnalyzeState struct{}

func (s audioPacketAnalyzeState) analyze(o *Optimizer, packet []byte) (*uint32, analyzeState, error) {
	r := bitpack.NewReader(bytes.NewReader(packet))
	kept, blocksize, err := WalkAudioPacket(r, o.ident, o.setup, o.codebooks,
		func(uint32, uint8) error { return nil },
		func(int, uint32) error { return nil },
	)
	if err != nil {
		return nil, nil, err
	}
	if !kept {
		return nil, s, nil
	}
	return &blocksize, s, nil
}

type identificationHeaderCopyState struct{}

func (identificationHeaderCopyState) rewrite(o *Optimizer, packet []byte) ([]byte, *uint32, bool, rewriteState, error) {
	return EncodeIdentificationHeader(o.ident), nil, false, commentHeaderCopyState{}, nil
}

type commentHeaderCopyState struct{}

func (commentHeaderCopyState) rewrite(o *Optimizer, packet []byte) ([]byte, *uint32, bool, rewriteState, error) {
	rewritten := RewriteCommentHeader(o.comment, o.settings.Comment)
	return EncodeCommentHeader(rewritten), nil, false, setupHeaderRewriteState{}, nil
}

type setupHeaderRewriteState struct{}

func (setupHeaderRewriteState) rewrite(o *Optimizer, packet []byte) ([]byte, *uint32, bool, rewriteState, error) {
	for i, cb := range o.codebooks {
		if err := cb.Transition(); err != nil {
			return nil, nil, false, nil, err
		}
		o.setup.Codebooks[i].Lengths = cb.OptimalLengths()
	}

	return EncodeSetupHeader(o.setup, int(o.ident.Channels)), nil, false, audioPacketRewriteState{}, nil
}

// audioPacketRewriteState is pass 2's terminal state: every remaining
// packet is re-walked with callbacks that re-emit generic bit reads
// verbatim and replace each codebook entry read with that entry's
// precomputed optimal codeword.
type audioPacketRewriteState struct{}

func (s audioPacketRewriteState) rewrite(o *Optimizer, packet []byte) ([]byte, *uint32, bool, rewriteState, error) {
	r := bitpack.NewReader(bytes.NewReader(packet))

	var buf bytes.Buffer
	out := bitpack.NewWriter(&buf)

	kept, blocksize, err := WalkAudioPacket(r, o.ident, o.setup, o.codebooks,
		func(value uint32, width uint8) error {
			return out.WriteUnsignedInteger(value, w(int(width)))
		},
		func(codebook int, entry uint32) error {
			bits, length, ok := o.codebooks[codebook].OptimalCodewords().Lookup(entry)
			if !ok {
				return ErrMissingOptimalCodeword
			}
			return out.WriteUnsignedInteger(bits, w(int(length)))
		},
	)
	if err != nil {
		return nil, nil, false, nil, err
	}
	if !kept {
		return nil, nil, true, s, nil
	}

	if err := out.Flush(); err != nil {
		return nil, nil, false, nil, err
	}
	return buf.Bytes(), &blocksize, false, s, nil
}
