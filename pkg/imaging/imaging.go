// Package imaging 提供头像图片的压缩处理能力。
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

// 压缩参数：质量从 85 起步，每轮下调 12，最低 35，最多尝试 6 轮。
const (
	startQuality = 85
	qualityStep  = 12
	minQuality   = 35
	maxAttempts  = 6
)

// ErrTooLarge 表示在质量下限内仍无法压到目标体积。
var ErrTooLarge = errors.New("image cannot be compressed within size budget")

// Result 是一次压缩处理的产物。
type Result struct {
	Data    []byte
	Width   int
	Height  int
	Quality int
}

// Process 解码图片，将最长边缩放到 maxDim 以内，再按质量阶梯压缩成 JPEG，
// 直到体积不超过 maxBytes。
func Process(raw []byte, maxDim, maxBytes int) (*Result, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img = Downscale(img, maxDim)
	b := img.Bounds()

	quality := startQuality
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		if buf.Len() <= maxBytes {
			return &Result{
				Data:    buf.Bytes(),
				Width:   b.Dx(),
				Height:  b.Dy(),
				Quality: quality,
			}, nil
		}
		if quality == minQuality {
			break
		}
		quality -= qualityStep
		if quality < minQuality {
			quality = minQuality
		}
	}

	return nil, ErrTooLarge
}

// Downscale 等比缩放图片，使最长边不超过 maxDim。已经满足则原样返回。
func Downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	var nw, nh int
	if w >= h {
		nw = maxDim
		nh = h * maxDim / w
	} else {
		nh = maxDim
		nw = w * maxDim / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
