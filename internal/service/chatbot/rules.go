package chatbot

import (
	"fmt"
	"sort"
	"strings"

	"eppdetect/internal/model"
	"eppdetect/internal/service/report"
)

const noAnalysisText = "No hay análisis disponibles. Por favor, sube y analiza una imagen primero."

const fallbackText = "🤔 No entendí tu pregunta.\n\n" +
	"**Puedes preguntar:**\n" +
	"• '¿Qué es EPP?'\n" +
	"• 'Normativas de seguridad'\n" +
	"• '¿Cómo funciona el sistema?'\n" +
	"• 'Tipos de cascos'\n" +
	"• 'Importancia del chaleco'\n" +
	"• 'Protección de manos'\n\n" +
	"Escribe 'ayuda' para ver todas las opciones"

// missingAdvice explains each mandatory item in the missing-items answer.
var missingAdvice = map[model.Class]string{
	model.ClassHelmet:  "Protección craneal obligatoria",
	model.ClassVest:    "Alta visibilidad obligatoria",
	model.ClassGloves:  "Protección de manos obligatoria",
	model.ClassGoggles: "Protección ocular obligatoria",
}

func keywords(words ...string) func(Query) bool {
	return func(q Query) bool { return q.ContainsAny(words...) }
}

func static(text string) func(model.ComplianceVerdict, bool) string {
	return func(model.ComplianceVerdict, bool) string { return text }
}

// DefaultRules returns the rule table in priority order: questions about the
// last analysis first, then general PPE topics, help and greetings.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:          "missing",
			Match:         keywords("falta", "faltante", "incumple", "no cumple", "problema", "necesita"),
			NeedsAnalysis: true,
			NoAnalysis:    noAnalysisText,
			Respond:       respondMissing,
		},
		{
			Name:          "compliance",
			Match:         keywords("cumple", "cumplimiento", "cumplen"),
			NeedsAnalysis: true,
			NoAnalysis:    noAnalysisText,
			Respond:       respondCompliance,
		},
		{
			Name:          "last_report",
			Match:         keywords("ultimo", "ultima", "analisis", "detalle", "resumen", "reporte"),
			NeedsAnalysis: true,
			NoAnalysis:    noAnalysisText,
			Respond:       respondReport,
		},
		{
			Name:          "detections",
			Match:         keywords("detectaste", "viste", " hay ", "detecciones", "detectado"),
			NeedsAnalysis: true,
			Respond:       respondDetections,
		},
		{
			Name:    "improve",
			Match:   keywords("mejorar", "solucion", "arreglar", "corregir"),
			Respond: static(improveText),
		},
		{
			Name: "what_is_ppe",
			Match: func(q Query) bool {
				return q.ContainsAny("que es epp", "define epp", "que significa epp", "que es el epp") || q.Is("epp")
			},
			Respond: static(whatIsPPEText),
		},
		{
			Name:    "regulations",
			Match:   keywords("normativa", "obligatorio", "requisito", " ley ", "seguridad"),
			Respond: static(regulationsText),
		},
		{
			Name:    "how_it_works",
			Match:   keywords("como funciona", "sistema", "funciona"),
			Respond: static(howItWorksText),
		},
		{
			Name:    "helmet_types",
			Match:   keywords("tipos de casco", "tipo de casco", "cascos", "tipos casco"),
			Respond: static(helmetTypesText),
		},
		{
			Name:    "vest",
			Match:   keywords("chaleco", " vest "),
			Respond: static(vestText),
		},
		{
			Name:    "gloves",
			Match:   keywords("guante", " mano", "proteccion de manos"),
			Respond: static(glovesText),
		},
		{
			Name:    "help",
			Match:   func(q Query) bool { return q.Is("ayuda", "help", "?") },
			Respond: respondHelp,
		},
		{
			Name:    "greeting",
			Match:   keywords("hola", "buenos", " hey ", "buenas"),
			Respond: static(greetingText),
		},
	}
}

func respondMissing(v model.ComplianceVerdict, _ bool) string {
	missing := report.MissingByPerson(v)
	if len(missing) == 0 {
		if v.TotalPersons == 0 {
			return "❌ No detecté personas en la última imagen analizada."
		}
		return "✅ ¡Excelente! No hay incumplimientos detectados. Todas las personas en el último análisis cumplen con los requisitos de EPP."
	}

	var sb strings.Builder
	sb.WriteString("⚠️ **ANÁLISIS DE INCUMPLIMIENTO**\n\n")
	fmt.Fprintf(&sb, "📊 Estado: %s / %s\n\n",
		plural(v.Summary.Compliant, "persona cumple", "personas cumplen"),
		plural(v.Summary.NonCompliant, "no cumple", "no cumplen"))
	sb.WriteString("📋 **Implementos faltantes por persona:**\n\n")
	for _, p := range v.Persons {
		if len(p.MissingItems) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "👤 **Persona %d** necesita:\n", p.Index)
		for _, c := range p.MissingItems {
			fmt.Fprintf(&sb, "   • %s %s - %s\n", report.Emoji(c), report.DisplayName(c), missingAdvice[c])
		}
		sb.WriteString("\n")
	}
	sb.WriteString("💡 **Recomendación:** Todos los trabajadores deben portar Casco + Chaleco + Guantes + Gafas antes de ingresar al área de trabajo.")
	return sb.String()
}

func respondCompliance(v model.ComplianceVerdict, _ bool) string {
	if v.TotalPersons == 0 {
		return "❌ No detecté personas en la imagen"
	}
	compliant, nonCompliant := v.Summary.Compliant, v.Summary.NonCompliant
	rate := float64(compliant) / float64(v.TotalPersons) * 100

	switch {
	case compliant == v.TotalPersons:
		return fmt.Sprintf("✅ **¡SÍ CUMPLE!**\n\nTodos los trabajadores (%d/%d) portan los EPP obligatorios correctamente.",
			compliant, v.TotalPersons)
	case rate >= 50:
		return fmt.Sprintf("⚠️ **CUMPLIMIENTO PARCIAL** (%.0f%%)\n\n✓ En cumplimiento: %d\n✗ Con violaciones: %d\n\nSe requiere corrección inmediata",
			rate, compliant, nonCompliant)
	default:
		return fmt.Sprintf("❌ **NO CUMPLE** (%.0f%%)\n\n✓ En cumplimiento: %d\n✗ Con violaciones: %d\n\n🚨 URGENTE: Detener actividades hasta corregir",
			rate, compliant, nonCompliant)
	}
}

func respondReport(v model.ComplianceVerdict, _ bool) string {
	var sb strings.Builder
	sb.WriteString("📊 **REPORTE COMPLETO DEL ÚLTIMO ANÁLISIS**\n\n")
	fmt.Fprintf(&sb, "👥 **Personas detectadas:** %d\n", v.TotalPersons)
	fmt.Fprintf(&sb, "📦 **Total de objetos detectados:** %d\n", v.TotalDetections)
	fmt.Fprintf(&sb, "✅ **Estado general:** %s\n\n", report.ComplianceMessage(v))

	sb.WriteString("🔍 **DETECCIONES POR CATEGORÍA:**\n\n")
	counts := make(map[string]int)
	var confidence float64
	for _, d := range v.Detections {
		counts[d.Label]++
		confidence += d.Confidence
	}
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		n := counts[label]
		suffix := ""
		if n > 1 {
			suffix = "s"
		}
		fmt.Fprintf(&sb, "%s **%s**: %d detectado%s\n", report.Emoji(model.ParseClass(label)), capitalize(label), n, suffix)
	}
	if len(v.Detections) > 0 {
		fmt.Fprintf(&sb, "\n📈 **Confianza promedio:** %.1f%%\n", confidence/float64(len(v.Detections))*100)
	}

	sb.WriteString("\n👥 **CUMPLIMIENTO POR PERSONA:**\n\n")
	missing := report.MissingByPerson(v)
	if len(missing) == 0 {
		sb.WriteString("✅ Todas las personas cumplen con los requisitos de EPP\n")
	}
	for _, m := range missing {
		fmt.Fprintf(&sb, "❌ Persona %d: NO CUMPLE - Falta %s\n", m.PersonID, strings.Join(m.Missing, ", "))
	}

	sb.WriteString("\n📋 **CRITERIOS DE CUMPLIMIENTO:**\n")
	sb.WriteString("• Obligatorios: Casco + Chaleco + Guantes + Gafas\n")
	sb.WriteString("• Recomendados: Botas de seguridad")
	return sb.String()
}

func respondDetections(v model.ComplianceVerdict, _ bool) string {
	var sb strings.Builder
	sb.WriteString("🔍 **ELEMENTOS DETECTADOS**\n\n")
	fmt.Fprintf(&sb, "👥 Personas: %d\n", v.TotalPersons)
	fmt.Fprintf(&sb, "📦 Total detecciones: %d\n\n", v.TotalDetections)
	sb.WriteString("**Equipos:**\n")

	for _, c := range []model.Class{model.ClassHelmet, model.ClassVest, model.ClassGoggles, model.ClassGloves} {
		n := 0
		for _, p := range v.Persons {
			if p.Has(c) {
				n++
			}
		}
		if n > 0 {
			fmt.Fprintf(&sb, "  %s %s: %d\n", report.Emoji(c), report.DisplayName(c), n)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func respondHelp(_ model.ComplianceVerdict, ok bool) string {
	var sb strings.Builder
	sb.WriteString("🆘 **COMANDOS DISPONIBLES**\n\n")
	if ok {
		sb.WriteString("**Sobre la imagen analizada:**\n")
		sb.WriteString("  • '¿cumple?'\n")
		sb.WriteString("  • '¿qué falta?'\n")
		sb.WriteString("  • '¿qué detectaste?'\n")
		sb.WriteString("  • 'reporte completo'\n\n")
	}
	sb.WriteString("**Preguntas generales:**\n")
	sb.WriteString("  • 'normativas obligatorias'\n")
	sb.WriteString("  • 'tipos de cascos'\n")
	sb.WriteString("  • 'importancia del chaleco'\n")
	sb.WriteString("  • 'protección de manos'\n")
	sb.WriteString("  • '¿cómo mejorar el cumplimiento?'")
	return sb.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
