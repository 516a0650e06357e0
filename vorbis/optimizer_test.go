package vorbis

import (
	"strings"
	"testing"
)

func TestOptimizerTwoPassRewrite(t *testing.T) {
	ident := IdentificationData{
		Channels:   1,
		SampleRate: 8000,
		Blocksize0: 64,
		Blocksize1: 128,
	}

	setupData, _ := sampleWalkerSetup(t)
	setupPacket := EncodeSetupHeader(setupData, int(ident.Channels))

	commentPacket := EncodeCommentHeader(CommentData{
		Vendor:   []byte("test vendor"),
		Comments: [][]byte{[]byte("TITLE=x")},
	})

	audioPacket := buildWalkerPacket()
	identPacket := EncodeIdentificationHeader(ident)

	opt := NewOptimizer(OptimizerSettings{
		Comment: CommentRewriteSettings{
			VendorAction: VendorAppendTag,
			Tag:          "OptiVorbis test",
		},
	}, ident)

	if bs, err := opt.AnalyzePacket(commentPacket); err != nil || bs != nil {
		t.Fatalf("AnalyzePacket(comment) = %v, %v, want nil, nil", bs, err)
	}
	if bs, err := opt.AnalyzePacket(setupPacket); err != nil || bs != nil {
		t.Fatalf("AnalyzePacket(setup) = %v, %v, want nil, nil", bs, err)
	}
	bs, err := opt.AnalyzePacket(audioPacket)
	if err != nil {
		t.Fatalf("AnalyzePacket(audio): %v", err)
	}
	if bs == nil || *bs != 64 {
		t.Fatalf("AnalyzePacket(audio) blocksize = %v, want 64", bs)
	}

	outIdent, bs, discard, err := opt.OptimizePacket(identPacket)
	if err != nil || discard || bs != nil {
		t.Fatalf("OptimizePacket(ident) = %v, %v, %v, want non-discard, nil blocksize", bs, discard, err)
	}
	gotIdent, err := ParseIdentificationHeader(outIdent)
	if err != nil {
		t.Fatalf("ParseIdentificationHeader(rewritten): %v", err)
	}
	if gotIdent != ident {
		t.Fatalf("rewritten ident = %+v, want %+v", gotIdent, ident)
	}

	outComment, bs, discard, err := opt.OptimizePacket(commentPacket)
	if err != nil || discard || bs != nil {
		t.Fatalf("OptimizePacket(comment) = %v, %v, %v", bs, discard, err)
	}
	gotComment, err := ParseCommentHeader(outComment)
	if err != nil {
		t.Fatalf("ParseCommentHeader(rewritten): %v", err)
	}
	if !strings.HasSuffix(string(gotComment.Vendor), "; OptiVorbis test") {
		t.Fatalf("rewritten vendor = %q, want suffix %q", gotComment.Vendor, "; OptiVorbis test")
	}

	outSetup, bs, discard, err := opt.OptimizePacket(setupPacket)
	if err != nil || discard || bs != nil {
		t.Fatalf("OptimizePacket(setup) = %v, %v, %v", bs, discard, err)
	}
	if _, err := ParseSetupHeader(outSetup, int(ident.Channels), true); err != nil {
		t.Fatalf("ParseSetupHeader(rewritten): %v", err)
	}

	outAudio, bs, discard, err := opt.OptimizePacket(audioPacket)
	if err != nil {
		t.Fatalf("OptimizePacket(audio): %v", err)
	}
	if discard {
		t.Fatalf("OptimizePacket(audio) discard = true, want false")
	}
	if bs == nil || *bs != 64 {
		t.Fatalf("OptimizePacket(audio) blocksize = %v, want 64", bs)
	}
	if len(outAudio) == 0 {
		t.Fatalf("OptimizePacket(audio) output is empty")
	}
}

func TestOptimizerPanicsOnRewriteBeforeAnalysisComplete(t *testing.T) {
	ident := IdentificationData{Channels: 1, Blocksize0: 64, Blocksize1: 128, SampleRate: 8000}
	opt := NewOptimizer(OptimizerSettings{}, ident)

	defer func() {
		if recover() == nil {
			t.Fatalf("OptimizePacket before analysis complete did not panic")
		}
	}()
	_, _, _, _ = opt.OptimizePacket(EncodeIdentificationHeader(ident))
}
