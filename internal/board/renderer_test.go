package board

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	nchess "github.com/corentings/chess/v2"
)

func startingBoard() *nchess.Board {
	return nchess.NewGame().Position().Board()
}

func TestRenderPNGProducesDecodableImage(t *testing.T) {
	r := NewPNGRenderer()
	data, err := r.RenderPNG(context.Background(), startingBoard(), Options{Bottom: nchess.White})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode rendered png: %v", err)
	}
	b := img.Bounds()
	if b.Dx() < 8*squareSize || b.Dy() < 8*squareSize {
		t.Fatalf("image too small for an 8x8 board: %v", b)
	}
}

func TestRenderPNGFlipDifferent(t *testing.T) {
	r := NewPNGRenderer()
	ctx := context.Background()

	white, err := r.RenderPNG(ctx, startingBoard(), Options{Bottom: nchess.White})
	if err != nil {
		t.Fatalf("render white bottom: %v", err)
	}
	black, err := r.RenderPNG(ctx, startingBoard(), Options{Bottom: nchess.Black})
	if err != nil {
		t.Fatalf("render black bottom: %v", err)
	}
	if bytes.Equal(white, black) {
		t.Fatalf("flipping the board must change the rendered image")
	}
}

func TestRenderPNGHighlightChangesImage(t *testing.T) {
	r := NewPNGRenderer()
	ctx := context.Background()

	plain, err := r.RenderPNG(ctx, startingBoard(), Options{Bottom: nchess.White})
	if err != nil {
		t.Fatalf("render plain: %v", err)
	}
	lit, err := r.RenderPNG(ctx, startingBoard(), Options{
		Bottom:    nchess.White,
		Highlight: &Highlight{From: nchess.E2, To: nchess.E4},
	})
	if err != nil {
		t.Fatalf("render highlighted: %v", err)
	}
	if bytes.Equal(plain, lit) {
		t.Fatalf("last-move highlight must change the rendered image")
	}
}

func TestRenderPNGCaption(t *testing.T) {
	r := NewPNGRenderer()
	ctx := context.Background()

	blank, err := r.RenderPNG(ctx, startingBoard(), Options{Bottom: nchess.White})
	if err != nil {
		t.Fatalf("render without caption: %v", err)
	}
	captioned, err := r.RenderPNG(ctx, startingBoard(), Options{Bottom: nchess.White, Caption: "move 3 of 5"})
	if err != nil {
		t.Fatalf("render with caption: %v", err)
	}
	if bytes.Equal(blank, captioned) {
		t.Fatalf("caption must change the rendered image")
	}
}
