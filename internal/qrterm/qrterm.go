// Package qrterm renders QR codes for terminals.
package qrterm

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Render encodes content as a QR code drawn with Unicode half-block
// characters, two bitmap rows per output line. Each line is prefixed with
// indent.
func Render(content, indent string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "", err
	}
	qr.DisableBorder = false
	return draw(qr.Bitmap(), indent), nil
}

func draw(bitmap [][]bool, indent string) string {
	rows := len(bitmap)
	var sb strings.Builder

	for y := 0; y < rows; y += 2 {
		sb.WriteString(indent)
		for x := range bitmap[y] {
			top := bitmap[y][x] // true = black module
			bot := y+1 < rows && bitmap[y+1][x]
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
