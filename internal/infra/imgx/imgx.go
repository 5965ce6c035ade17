package imgx

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	_ "image/png" // 注册 PNG 解码器（解码端不一定总是 jpeg）
)

// DefaultPreviewQuality 对应预览图的 JPEG 质量（0.8 档）。
const DefaultPreviewQuality = 80

// NormalizeJPEG 把任意可解码的静帧统一重编码为 JPEG。
//
// 约束：
// - 输入允许 JPEG/PNG（依赖标准库解码器）
// - 输出固定为 JPEG，质量由 quality 决定（<=0 时取 DefaultPreviewQuality）
// - 空输入/不可解码输入返回错误，由上层按“无预览图”降级
func NormalizeJPEG(data []byte, quality int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("静帧为空")
	}
	if quality <= 0 {
		quality = DefaultPreviewQuality
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New("静帧尺寸无效")
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
