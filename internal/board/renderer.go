package board

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	nchess "github.com/corentings/chess/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type Highlight struct {
	From nchess.Square
	To   nchess.Square
}

type Options struct {
	// Bottom is the color whose pieces sit at the bottom edge.
	Bottom    nchess.Color
	Highlight *Highlight
	Caption   string
}

type Renderer interface {
	RenderPNG(ctx context.Context, board *nchess.Board, opts Options) ([]byte, error)
}

const (
	squareSize   = 64
	boardSquares = 8
	boardSize    = squareSize * boardSquares
	sideMargin   = 24
	topMargin    = 48
	bottomMargin = 24
)

var (
	lightSquareColor = color.RGBA{R: 0xF0, G: 0xD9, B: 0xB5, A: 0xFF}
	darkSquareColor  = color.RGBA{R: 0xB5, G: 0x88, B: 0x63, A: 0xFF}
	highlightColor   = color.RGBA{R: 0xF6, G: 0xEB, B: 0x72, A: 0x90}
	marginColor      = color.RGBA{R: 0x2B, G: 0x2B, B: 0x2B, A: 0xFF}
	labelColor       = color.RGBA{R: 0xD8, G: 0xD8, B: 0xD8, A: 0xFF}
)

type pngRenderer struct{}

func NewPNGRenderer() Renderer {
	return &pngRenderer{}
}

func (r *pngRenderer) RenderPNG(ctx context.Context, b *nchess.Board, opts Options) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("board is nil")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	totalWidth := boardSize + sideMargin*2
	totalHeight := boardSize + topMargin + bottomMargin
	origin := image.Point{X: sideMargin, Y: topMargin}

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(marginColor), image.Point{}, imagedraw.Src)

	drawSquares(img, origin, opts.Bottom)
	drawHighlight(img, origin, opts.Bottom, opts.Highlight)
	if err := drawPieces(img, b, origin, opts.Bottom); err != nil {
		return nil, err
	}
	drawCoordinates(img, origin, opts.Bottom)
	if opts.Caption != "" {
		drawLabel(img, opts.Caption, origin.X, topMargin/2+4)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode board png: %w", err)
	}
	return buf.Bytes(), nil
}

// squareOrigin maps a square to its top-left pixel for the given bottom color.
func squareOrigin(sq nchess.Square, origin image.Point, bottom nchess.Color) image.Point {
	file := int(sq.File())
	rank := int(sq.Rank())
	var col, row int
	if bottom == nchess.Black {
		col = boardSquares - 1 - file
		row = rank
	} else {
		col = file
		row = boardSquares - 1 - rank
	}
	return image.Point{X: origin.X + col*squareSize, Y: origin.Y + row*squareSize}
}

func drawSquares(dst *image.RGBA, origin image.Point, bottom nchess.Color) {
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			sq := nchess.NewSquare(file, rank)
			clr := lightSquareColor
			if (int(file)+int(rank))%2 == 0 {
				clr = darkSquareColor
			}
			p := squareOrigin(sq, origin, bottom)
			imagedraw.Draw(dst, image.Rect(p.X, p.Y, p.X+squareSize, p.Y+squareSize), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawHighlight(dst *image.RGBA, origin image.Point, bottom nchess.Color, hl *Highlight) {
	if hl == nil {
		return
	}
	for _, sq := range []nchess.Square{hl.From, hl.To} {
		p := squareOrigin(sq, origin, bottom)
		imagedraw.Draw(dst, image.Rect(p.X, p.Y, p.X+squareSize, p.Y+squareSize), image.NewUniform(highlightColor), image.Point{}, imagedraw.Over)
	}
}

func drawPieces(dst *image.RGBA, b *nchess.Board, origin image.Point, bottom nchess.Color) error {
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			sq := nchess.NewSquare(file, rank)
			piece := b.Piece(sq)
			if piece == nchess.NoPiece {
				continue
			}
			sprite, err := renderPieceImage(piece, squareSize)
			if err != nil {
				return err
			}
			p := squareOrigin(sq, origin, bottom)
			imagedraw.Draw(dst, image.Rect(p.X, p.Y, p.X+squareSize, p.Y+squareSize), sprite, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawCoordinates(dst *image.RGBA, origin image.Point, bottom nchess.Color) {
	files := "abcdefgh"
	for i := 0; i < boardSquares; i++ {
		fileIdx := i
		rankIdx := boardSquares - 1 - i
		if bottom == nchess.Black {
			fileIdx = boardSquares - 1 - i
			rankIdx = i
		}
		// file letters along the bottom edge
		x := origin.X + i*squareSize + squareSize/2 - 3
		y := origin.Y + boardSize + 16
		drawLabel(dst, string(files[fileIdx]), x, y)
		// rank digits along the left edge
		x = origin.X - 14
		y = origin.Y + i*squareSize + squareSize/2 + 4
		drawLabel(dst, fmt.Sprintf("%d", rankIdx+1), x, y)
	}
}

func drawLabel(dst *image.RGBA, text string, x, y int) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
