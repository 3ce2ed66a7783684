package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plarroque/cephalo/internal/model"
	"github.com/plarroque/cephalo/internal/pipeline"
	"github.com/plarroque/cephalo/internal/prescription"
)

var chatDoctorName string

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive headache triage dialogue",
	Long: `Chat starts an interactive triage session. Describe the patient's
headache in free text; the assistant asks follow-up questions about
red flags until it can recommend imaging (or rule it out).

Commands inside the session:
  /aide        show this help
  /ordonnance  write a prescription for the current recommendation
  /reset       start over with a fresh case
  /quit        leave

Example:
  cephalo chat
  cephalo chat --embedding-provider ollama --embedding-model nomic-embed-text`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().String("embedding-provider", "", "similarity backend (openai, ollama, empty for rule-only)")
	chatCmd.Flags().String("embedding-model", "", "embedding model name")
	chatCmd.Flags().StringVar(&chatDoctorName, "doctor", "", "prescriber name for /ordonnance")

	_ = viper.BindPFlag("embedding.provider", chatCmd.Flags().Lookup("embedding-provider"))
	_ = viper.BindPFlag("embedding.model", chatCmd.Flags().Lookup("embedding-model"))
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	sessionID := ""
	var last *pipeline.TurnResult

	fmt.Println("Assistant céphalées. Décrivez le tableau clinique (/aide pour l'aide).")
	fmt.Println()

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/q":
			printSummary(last)
			return nil
		case "/aide":
			printChatHelp()
			continue
		case "/reset":
			if sessionID != "" {
				engine.Reset(sessionID)
			}
			last = nil
			fmt.Println("Nouveau cas. Décrivez le tableau clinique.")
			continue
		case "/ordonnance":
			if err := writePrescription(last, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "Erreur: %v\n", err)
			}
			continue
		}

		result, err := engine.HandleTurn(ctx, sessionID, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Erreur de traitement: %v\n", err)
			continue
		}
		sessionID = result.SessionID
		last = result

		printTurn(result)
		if result.DialogueComplete {
			printSummary(result)
			fmt.Println("(/ordonnance pour imprimer, /reset pour un nouveau cas, /quit pour sortir)")
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	printSummary(last)
	return nil
}

func printTurn(r *pipeline.TurnResult) {
	if r.Degraded {
		fmt.Println("[mode dégradé: analyse par règles seules]")
	}
	for _, p := range r.Patterns {
		fmt.Printf("Remarque: %s\n", p.Description)
	}
	if len(r.Contradictions) > 0 {
		fmt.Printf("Signaux contradictoires sur: %s\n", joinFields(r.Contradictions))
	}
	if r.NextQuestion != "" {
		fmt.Println(r.NextQuestion)
	}
}

func printSummary(r *pipeline.TurnResult) {
	if r == nil || r.Recommendation == nil {
		return
	}
	rec := r.Recommendation

	fmt.Println()
	fmt.Println("─────────────────────────────────────────────")
	fmt.Printf("Urgence : %s\n", urgencyLabel(rec.Urgency))
	if len(rec.Imaging) > 0 {
		fmt.Println("Examens :")
		for _, exam := range rec.Imaging {
			fmt.Printf("  - %s\n", strings.ReplaceAll(exam, "_", " "))
		}
	} else {
		fmt.Println("Examens : aucun")
	}
	fmt.Printf("Motif   : %s\n", rec.Comment)
	if flags := r.Case.RedFlags(); len(flags) > 0 {
		fmt.Printf("Drapeaux rouges : %s\n", joinFields(flags))
	}
	fmt.Printf("Confiance : %.0f%%  (règle %s)\n", r.Confidence*100, rec.AppliedRuleID)
	fmt.Println("─────────────────────────────────────────────")
}

func printChatHelp() {
	fmt.Println("Décrivez la céphalée en langage libre, par exemple:")
	fmt.Println(`  "Femme 45 ans, céphalée brutale en coup de tonnerre il y a 2h"`)
	fmt.Println()
	fmt.Println("Commandes:")
	fmt.Println("  /aide        cette aide")
	fmt.Println("  /ordonnance  générer l'ordonnance de la recommandation")
	fmt.Println("  /reset       réinitialiser le cas")
	fmt.Println("  /quit        quitter")
}

func writePrescription(last *pipeline.TurnResult, cfg model.Config) error {
	if last == nil || last.Recommendation == nil {
		return fmt.Errorf("aucune recommandation disponible, décrivez d'abord le cas")
	}
	path, err := prescription.Generate(last.Case, *last.Recommendation, chatDoctorName, cfg.Output.PrescriptionDir)
	if err != nil {
		return err
	}
	fmt.Printf("Ordonnance écrite: %s\n", path)
	return nil
}

func urgencyLabel(u model.Urgency) string {
	switch u {
	case model.UrgencyImmediate:
		return "IMMÉDIATE (urgences)"
	case model.UrgencyUrgent:
		return "URGENTE (sous 24-72h)"
	case model.UrgencyDelayed:
		return "PROGRAMMÉE (consultation planifiée)"
	default:
		return "AUCUNE (pas d'imagerie en première intention)"
	}
}

func joinFields(fields []model.Field) string {
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = string(f)
	}
	return strings.Join(labels, ", ")
}
