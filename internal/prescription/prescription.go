// Package prescription renders a completed case and its imaging
// recommendation into a printable French prescription document.
package prescription

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/plarroque/cephalo/internal/model"
)

// boxWidth approximates an A5 prescription pad.
const boxWidth = 60

var examNames = map[string]string{
	"scanner_cerebral_sans_injection": "Scanner cérébral sans injection",
	"scanner_cerebral_avec_injection": "Scanner cérébral avec injection",
	"irm_cerebrale":                   "IRM cérébrale",
	"irm_cerebrale_avec_gadolinium":   "IRM cérébrale avec gadolinium",
	"angio_irm_veineuse":              "Angio-IRM veineuse",
	"angio_irm":                       "Angio-IRM",
	"angioscanner_cerebral":           "Angioscanner cérébral",
	"ponction_lombaire":               "Ponction lombaire",
	"irm_rachis":                      "IRM du rachis",
	"doppler_tsa":                     "Doppler des troncs supra-aortiques",
	"echographie_arteres_temporales":  "Échographie des artères temporales",
	"biopsie_artere_temporale":        "Biopsie de l'artère temporale",
	"fond_oeil":                       "Fond d'œil",
}

var urgencyLabels = map[model.Urgency]string{
	model.UrgencyImmediate: "EN URGENCE (dans les heures)",
	model.UrgencyUrgent:    "URGENT (sous 24h)",
	model.UrgencyDelayed:   "Sous 7 jours",
	model.UrgencyNone:      "Non urgent",
}

// Generate writes a formatted prescription into dir and returns the
// file path. The file name carries a timestamp so successive
// prescriptions never overwrite each other.
func Generate(c *model.Case, rec model.Recommendation, doctorName, dir string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("nil case")
	}
	if dir == "" {
		dir = "ordonnances"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create prescription directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("ordonnance_%s.txt", time.Now().Format("20060102_150405")))
	content := Format(c, rec, doctorName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write prescription: %w", err)
	}
	return path, nil
}

// Format renders the document as text, boxed in the layout of a French
// prescription pad. A blank prescriber name renders as a placeholder
// to fill in by hand.
func Format(c *model.Case, rec model.Recommendation, doctorName string) string {
	doctorName = strings.TrimSpace(doctorName)
	if doctorName == "" {
		doctorName = "Dr. [NOM]"
	}

	b := newBox(boxWidth)

	b.top()
	b.blank()
	b.line("  " + doctorName)
	b.line("  Médecin")
	b.line("  N° RPPS : _______________")
	b.blank()
	b.line("  Adresse du cabinet :")
	b.line("  ______________________________")
	b.line("  Tél : ____________________")
	b.blank()
	b.separator()

	b.blank()
	b.line("  Le " + time.Now().Format("02/01/2006"))
	b.blank()

	b.line("  PATIENT :")
	b.line("  Nom : ____________________")
	b.line("  Prénom : _________________")
	b.line("  Âge : " + ageLabel(c.Age))
	b.line("  Sexe : " + sexLabel(c.Sex))
	if c.PregnancyPostpartum == model.TriTrue {
		b.line("  Grossesse / post-partum : Oui")
	}
	b.blank()
	b.separator()

	b.blank()
	b.center("ORDONNANCE")
	b.blank()

	if len(rec.Imaging) > 0 {
		for _, exam := range rec.Imaging {
			b.line("  • " + examName(exam))
		}
		b.blank()
		if label := urgencyLabels[rec.Urgency]; label != "" {
			b.line("  Délai : " + label)
			b.blank()
		}
	} else {
		b.line("  Pas d'examen d'imagerie requis.")
		b.blank()
	}

	b.line("  Renseignements cliniques :")
	for _, l := range wrapText(clinicalIndication(c), boxWidth-6) {
		b.line("  " + l)
	}
	b.blank()

	if precautions := buildPrecautions(c, rec); len(precautions) > 0 {
		b.line("  Précautions :")
		for _, p := range precautions {
			b.line("  " + p)
		}
		b.blank()
	}

	b.blank()
	b.blank()
	b.line("  Signature et cachet :")
	b.blank()
	b.blank()
	b.blank()
	b.bottom()

	return b.String()
}

// buildPrecautions lists the safety caveats that depend on patient
// context rather than on the chosen exams alone.
func buildPrecautions(c *model.Case, rec model.Recommendation) []string {
	var out []string

	if c.PregnancyPostpartum == model.TriTrue {
		out = append(out, "⚠ Grossesse : éviter le gadolinium")
		if rec.Urgency != model.UrgencyImmediate {
			out = append(out, "  Privilégier l'IRM sans injection")
		}
	}

	if c.Sex == model.SexFemale && c.Age > 0 && c.Age < 50 && c.PregnancyPostpartum != model.TriTrue {
		for _, exam := range rec.Imaging {
			if strings.Contains(exam, "scanner") {
				out = append(out,
					"⚠ Femme en âge de procréer :",
					"  Test de grossesse avant scanner")
				break
			}
		}
	}

	if c.Age > 60 {
		for _, exam := range rec.Imaging {
			if strings.Contains(exam, "injection") || strings.Contains(exam, "gadolinium") {
				out = append(out,
					"⚠ Patient > 60 ans :",
					"  Vérifier la fonction rénale")
				break
			}
		}
	}

	return out
}

// clinicalIndication builds the one-paragraph justification radiology
// expects on the prescription.
func clinicalIndication(c *model.Case) string {
	var parts []string

	switch c.Profile {
	case model.ProfileAcute:
		parts = append(parts, "Céphalée aiguë")
	case model.ProfileSubacute:
		parts = append(parts, "Céphalée subaiguë")
	case model.ProfileChronic:
		parts = append(parts, "Céphalée chronique")
	}

	switch c.Onset {
	case model.OnsetThunderclap:
		parts = append(parts, "Début brutal en coup de tonnerre")
	case model.OnsetProgressive:
		parts = append(parts, "Début progressif")
	}

	flagLabels := []struct {
		field model.Field
		label string
	}{
		{model.FieldFever, "Fièvre associée"},
		{model.FieldMeningealSigns, "Signes méningés"},
		{model.FieldNeuroDeficit, "Déficit neurologique"},
		{model.FieldSeizure, "Crise comitiale"},
		{model.FieldHTICPattern, "Signes d'HTIC"},
		{model.FieldTrauma, "Contexte traumatique"},
		{model.FieldImmunosuppression, "Patient immunodéprimé"},
		{model.FieldCancerHistory, "Antécédent de cancer"},
	}
	for _, fl := range flagLabels {
		if c.TriState(fl.field) == model.TriTrue {
			parts = append(parts, fl.label)
		}
	}

	if len(parts) == 0 {
		return "Céphalée à explorer."
	}
	return "Céphalée. " + strings.Join(parts, ". ") + "."
}

func examName(exam string) string {
	if name, ok := examNames[exam]; ok {
		return name
	}
	return strings.ReplaceAll(exam, "_", " ")
}

func sexLabel(s model.Sex) string {
	switch s {
	case model.SexMale:
		return "Masculin"
	case model.SexFemale:
		return "Féminin"
	case model.SexOther:
		return "Autre"
	}
	return "Non renseigné"
}

func ageLabel(age int) string {
	if age <= 0 {
		return "Non renseigné"
	}
	return fmt.Sprintf("%d ans", age)
}

// wrapText splits text into lines at word boundaries, counting runes
// so accented words do not shorten lines.
func wrapText(text string, max int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := ""
	for _, w := range words {
		if current == "" {
			current = w
			continue
		}
		if utf8.RuneCountInString(current)+1+utf8.RuneCountInString(w) <= max {
			current += " " + w
		} else {
			lines = append(lines, current)
			current = w
		}
	}
	return append(lines, current)
}

// box accumulates the bordered document; padding counts runes, not
// bytes, so the right border stays aligned on accented lines.
type box struct {
	width int
	sb    strings.Builder
}

func newBox(width int) *box { return &box{width: width} }

func (b *box) top()       { b.raw("┌" + strings.Repeat("─", b.width-2) + "┐") }
func (b *box) bottom()    { b.raw("└" + strings.Repeat("─", b.width-2) + "┘") }
func (b *box) separator() { b.raw("├" + strings.Repeat("─", b.width-2) + "┤") }
func (b *box) blank()     { b.line("") }

func (b *box) line(text string) {
	pad := b.width - 2 - utf8.RuneCountInString(text)
	if pad < 0 {
		pad = 0
	}
	b.raw("│" + text + strings.Repeat(" ", pad) + "│")
}

func (b *box) center(text string) {
	inner := b.width - 2
	n := utf8.RuneCountInString(text)
	left := (inner - n) / 2
	if left < 0 {
		left = 0
	}
	right := inner - n - left
	if right < 0 {
		right = 0
	}
	b.raw("│" + strings.Repeat(" ", left) + text + strings.Repeat(" ", right) + "│")
}

func (b *box) raw(line string) {
	b.sb.WriteString(line)
	b.sb.WriteByte('\n')
}

func (b *box) String() string { return b.sb.String() }
