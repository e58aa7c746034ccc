package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"eppdetect/internal/model"
)

const (
	ruleWidth      = 70
	maxViolations  = 10
	criteriaHeader = "📌 CRITERIOS DE CUMPLIMIENTO"
)

var presenceOrder = []model.Class{model.ClassHelmet, model.ClassVest, model.ClassGloves, model.ClassGoggles}

// RenderVerdict formats an image verdict as a plain-text report.
func RenderVerdict(v model.ComplianceVerdict) string {
	var sb strings.Builder
	rule := strings.Repeat("=", ruleWidth)

	sb.WriteString(rule + "\n")
	sb.WriteString("📋 REPORTE DE CUMPLIMIENTO DE EPP\n")
	sb.WriteString(rule + "\n")
	fmt.Fprintf(&sb, "📁 Imagen: %s\n", v.Source)
	fmt.Fprintf(&sb, "👥 Personas detectadas: %d\n", v.TotalPersons)
	fmt.Fprintf(&sb, "📦 Total de detecciones: %d\n", v.TotalDetections)
	fmt.Fprintf(&sb, "✅ Personas en cumplimiento: %d\n", v.Summary.Compliant)
	fmt.Fprintf(&sb, "❌ Personas sin cumplimiento: %d\n", v.Summary.NonCompliant)
	writeCriteria(&sb)

	for _, p := range v.Persons {
		status := "✅ CUMPLE"
		if !p.Complies {
			status = "❌ NO CUMPLE"
		}
		fmt.Fprintf(&sb, "\n👤 Persona %d: %s\n", p.Index, status)
		fmt.Fprintf(&sb, "   Confianza: %.2f%%\n", p.Confidence*100)
		for _, c := range presenceOrder {
			mark := "✗ FALTA"
			if p.Has(c) {
				mark = "✓ Detectado"
			}
			fmt.Fprintf(&sb, "   %s %-8s %s\n", Emoji(c), DisplayName(c)+":", mark)
		}
		boots := "○ No detectado (opcional)"
		if p.Has(model.ClassBoots) {
			boots = "✓ Detectado"
		}
		fmt.Fprintf(&sb, "   %s %-8s %s\n", Emoji(model.ClassBoots), "Botas:", boots)

		if len(p.MissingItems) > 0 {
			fmt.Fprintf(&sb, "   ⚠️  FALTA (obligatorio): %s\n", strings.Join(DisplayNames(p.MissingItems), ", "))
		}
		if len(p.Markers) > 0 {
			fmt.Fprintf(&sb, "   🚩 Marcadores de violación: %s\n", joinClasses(p.Markers))
		}
	}

	sb.WriteString("\n" + rule + "\n")
	return sb.String()
}

// RenderVideo formats a video report as a plain-text report.
func RenderVideo(r model.VideoReport, output string) string {
	var sb strings.Builder
	rule := strings.Repeat("=", ruleWidth)

	sb.WriteString(rule + "\n")
	sb.WriteString("📊 REPORTE DE ANÁLISIS DE VIDEO - CUMPLIMIENTO EPP\n")
	sb.WriteString(rule + "\n")
	fmt.Fprintf(&sb, "📁 Video original: %s\n", filepath.Base(r.Source))
	if output != "" {
		fmt.Fprintf(&sb, "💾 Video analizado: %s\n", filepath.Base(output))
	}
	writeCriteria(&sb)

	sb.WriteString("\n📈 ESTADÍSTICAS GENERALES:\n")
	fmt.Fprintf(&sb, "   ├─ Frames leídos: %d (cada %d evaluado)\n", r.FramesRead, r.Stride)
	fmt.Fprintf(&sb, "   ├─ Total de frames procesados: %d\n", r.FramesProcessed)
	if r.RateAvailable {
		rate := r.ComplianceRate * 100
		fmt.Fprintf(&sb, "   ├─ Frames con cumplimiento: %d (%.2f%%)\n", r.CompliantFrames, rate)
		fmt.Fprintf(&sb, "   ├─ Frames con violaciones: %d (%.2f%%)\n", r.ViolatingFrames(), violationShare(r))
		fmt.Fprintf(&sb, "   └─ Tasa de cumplimiento: %s\n", levelLabel(rate))
	} else {
		fmt.Fprintf(&sb, "   ├─ Frames con cumplimiento: %d\n", r.CompliantFrames)
		fmt.Fprintf(&sb, "   ├─ Frames con violaciones: %d\n", r.ViolatingFrames())
		sb.WriteString("   └─ Tasa de cumplimiento: N/A (sin frames procesados)\n")
	}
	if r.Truncated {
		fmt.Fprintf(&sb, "\n⚠️  Análisis interrumpido: %s\n", r.StopReason)
	}

	if len(r.Violations) > 0 {
		fmt.Fprintf(&sb, "\n⚠️  VIOLACIONES DETECTADAS (%d frames):\n", len(r.Violations))
		fmt.Fprintf(&sb, "   Mostrando primeras %d violaciones:\n", maxViolations)
		fmt.Fprintf(&sb, "   %-8s %-10s %-6s %-7s %-9s %-9s %s\n", "Frame", "Tiempo", "Pers", "Casco", "Chaleco", "Guantes", "Gafas")
		sb.WriteString("   " + strings.Repeat("-", 65) + "\n")
		for i, v := range r.Violations {
			if i == maxViolations {
				break
			}
			fmt.Fprintf(&sb, "   %-8d %-10s %-6d %-7d %-9d %-9d %d\n",
				v.FrameNumber, fmt.Sprintf("%.2fs", v.TimestampSeconds), v.PersonCount,
				v.Counts[model.ClassHelmet], v.Counts[model.ClassVest],
				v.Counts[model.ClassGloves], v.Counts[model.ClassGoggles])
		}
		if extra := len(r.Violations) - maxViolations; extra > 0 {
			fmt.Fprintf(&sb, "   ... y %d violaciones más\n", extra)
		}
	} else if r.FramesProcessed > 0 {
		sb.WriteString("\n✅ ¡EXCELENTE! No se detectaron violaciones de EPP\n")
	}

	if len(r.Positional) > 0 {
		sb.WriteString("\n👥 RESUMEN POR POSICIÓN (no es seguimiento de identidad):\n")
		for _, p := range r.Positional {
			if p.Complies {
				fmt.Fprintf(&sb, "   ✅ Posición %d: cumple en %d frames\n", p.Index, p.Frames)
			} else {
				fmt.Fprintf(&sb, "   ❌ Posición %d: falta %s\n", p.Index, strings.Join(DisplayNames(p.MissingItems), ", "))
			}
		}
	}

	sb.WriteString(rule + "\n")
	if r.RateAvailable {
		fmt.Fprintf(&sb, "💡 Recomendación: %s\n", Recommendation(r.ComplianceRate*100))
		sb.WriteString(rule + "\n")
	}
	return sb.String()
}

func writeCriteria(sb *strings.Builder) {
	fmt.Fprintf(sb, "\n%s\n", criteriaHeader)
	sb.WriteString("Obligatorios: Casco + Chaleco + Guantes + Gafas\n")
	sb.WriteString("Recomendados: Botas\n")
	sb.WriteString(strings.Repeat("-", ruleWidth) + "\n")
}

func levelLabel(percent float64) string {
	level := RateLevel(percent)
	switch level {
	case "ALTA":
		return "✅ " + level
	case "MEDIA":
		return "⚠️ " + level
	}
	return "❌ " + level
}

// violationShare is the share of processed frames with a violation event.
func violationShare(r model.VideoReport) float64 {
	if r.FramesProcessed == 0 {
		return 0
	}
	return float64(r.ViolatingFrames()) / float64(r.FramesProcessed) * 100
}

func joinClasses(classes []model.Class) string {
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
