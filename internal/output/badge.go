package output

import "fmt"

// Badge colors follow the shields.io palette.
const (
	badgeRed    = "#e05d44"
	badgeYellow = "#dfb317"
	badgeGreen  = "#4c1"
	badgeGray   = "#9f9f9f"
	badgeLabel  = "PRGuard"
)

// RiskBadge renders an SVG badge for a risk score, colored by band.
func RiskBadge(score float64) string {
	return renderBadge(badgeLabel, fmt.Sprintf("%.0f/100", score), scoreColor(score))
}

// StatusBadge renders an SVG badge for a pass/warn/fail status.
func StatusBadge(status string) string {
	color := badgeGray
	switch status {
	case "pass":
		color = badgeGreen
	case "warn":
		color = badgeYellow
	case "fail":
		color = badgeRed
	}
	return renderBadge(badgeLabel, status, color)
}

func scoreColor(score float64) string {
	switch {
	case score >= RiskHigh:
		return badgeRed
	case score >= RiskMedium:
		return badgeYellow
	default:
		return badgeGreen
	}
}

// renderBadge emits a shields.io-style flat badge. Widths approximate
// 11px DejaVu Sans at 7px per character plus padding.
func renderBadge(label, value, color string) string {
	labelWidth := len(label)*7 + 10
	valueWidth := len(value)*7 + 10
	totalWidth := labelWidth + valueWidth

	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="20">
  <linearGradient id="b" x2="0" y2="100%%">
    <stop offset="0" stop-color="#bbb" stop-opacity=".1"/>
    <stop offset="1" stop-opacity=".1"/>
  </linearGradient>
  <clipPath id="a">
    <rect width="%d" height="20" rx="3" fill="#fff"/>
  </clipPath>
  <g clip-path="url(#a)">
    <rect width="%d" height="20" fill="#555"/>
    <rect x="%d" width="%d" height="20" fill="%s"/>
    <rect width="%d" height="20" fill="url(#b)"/>
  </g>
  <g fill="#fff" text-anchor="middle" font-family="DejaVu Sans,sans-serif" font-size="11">
    <text x="%d" y="15" fill="#010101" fill-opacity=".3">%s</text>
    <text x="%d" y="14">%s</text>
    <text x="%d" y="15" fill="#010101" fill-opacity=".3">%s</text>
    <text x="%d" y="14">%s</text>
  </g>
</svg>`,
		totalWidth,
		totalWidth,
		labelWidth,
		labelWidth, valueWidth, color,
		totalWidth,
		labelWidth/2, label,
		labelWidth/2, label,
		labelWidth+valueWidth/2, value,
		labelWidth+valueWidth/2, value,
	)
}
