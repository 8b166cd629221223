package pcm

import "testing"

func TestFromInterleavedToInterleavedRoundTrip(t *testing.T) {
	interleaved := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	block := FromInterleaved(44100, 2, interleaved)

	if block.NumChannels() != 2 || block.NumFrames() != 3 {
		t.Fatalf("got channels=%d frames=%d, want 2/3", block.NumChannels(), block.NumFrames())
	}
	if err := block.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	got := ToInterleaved(block)
	for i, want := range interleaved {
		if got[i] != want {
			t.Fatalf("sample %d: got %v, want %v", i, got[i], want)
		}
	}
}

func TestReshapePadsMissingChannels(t *testing.T) {
	block := FromInterleaved(44100, 1, []float32{0.5, 0.6})
	out := Reshape(block, 2)
	if out.NumChannels() != 2 {
		t.Fatalf("got %d channels, want 2", out.NumChannels())
	}
	for _, v := range out.Channels[1] {
		if v != 0 {
			t.Fatalf("expected padded channel to be silence, got %v", v)
		}
	}
}

func TestReshapeDropsSurplusChannels(t *testing.T) {
	block := FromInterleaved(44100, 4, []float32{1, 2, 3, 4})
	out := Reshape(block, 2)
	if out.NumChannels() != 2 {
		t.Fatalf("got %d channels, want 2", out.NumChannels())
	}
}

func TestDuplicateMonoCopiesChannelZero(t *testing.T) {
	block := FromInterleaved(44100, 1, []float32{0.25, 0.75})
	stereo := DuplicateMono(block)
	if stereo.NumChannels() != 2 {
		t.Fatalf("got %d channels, want 2", stereo.NumChannels())
	}
	if stereo.Channels[0][0] != stereo.Channels[1][0] {
		t.Fatalf("expected both channels to match after duplication")
	}
}

func TestValidateRejectsMismatchedChannelLengths(t *testing.T) {
	b := Block{Rate: 44100, Channels: [][]float32{{1, 2}, {1}}}
	if err := b.Validate(); err == nil {
		t.Fatalf("expected an error for mismatched channel lengths")
	}
}

func TestValidateRejectsEmptyBlock(t *testing.T) {
	b := Block{Rate: 44100}
	if err := b.Validate(); err == nil {
		t.Fatalf("expected an error for an empty block")
	}
}
