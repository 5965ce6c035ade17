package imgx

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestNormalizeJPEG_FromPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("构造 PNG 失败：%v", err)
	}

	out, err := NormalizeJPEG(buf.Bytes(), 0)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	// JPEG SOI 头。
	if len(out) < 2 || out[0] != 0xFF || out[1] != 0xD8 {
		t.Fatalf("输出不是 JPEG：% x", out[:min(4, len(out))])
	}
}

func TestNormalizeJPEG_Invalid(t *testing.T) {
	if _, err := NormalizeJPEG(nil, 80); err == nil {
		t.Fatalf("空输入应失败")
	}
	if _, err := NormalizeJPEG([]byte("not an image"), 80); err == nil {
		t.Fatalf("不可解码输入应失败")
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
