package rules

import "github.com/plarroque/cephalo/internal/model"

// DefaultRules returns the built-in clinical table. Deployments can
// replace it with a YAML file (see Load); the semantics are identical.
func DefaultRules() []model.Rule {
	return []model.Rule{
		// Acute emergencies: immediate imaging, dialogue stops asking.
		{
			ID:       "HSA_001",
			Category: model.CategoryAcuteEmergency,
			Urgency:  model.UrgencyImmediate,
			Predicates: []model.Predicate{
				{Field: model.FieldOnset, Kind: model.PredEquals, Value: string(model.OnsetThunderclap)},
			},
			Imaging: []string{"scanner_cerebral_sans_injection", "angioscanner_cerebral"},
			Comment: "Céphalée en coup de tonnerre: suspicion d'hémorragie sous-arachnoïdienne jusqu'à preuve du contraire.",
		},
		{
			ID:       "MENINGITE_001",
			Category: model.CategoryAcuteEmergency,
			Urgency:  model.UrgencyImmediate,
			Predicates: []model.Predicate{
				{Field: model.FieldFever, Kind: model.PredIsTrue},
				{Field: model.FieldMeningealSigns, Kind: model.PredIsTrue},
			},
			Imaging: []string{"scanner_cerebral_sans_injection", "ponction_lombaire"},
			Comment: "Syndrome méningé fébrile: suspicion de méningite ou méningo-encéphalite, antibiothérapie sans attendre l'imagerie si purpura.",
		},
		{
			ID:       "DEFICIT_001",
			Category: model.CategoryAcuteEmergency,
			Urgency:  model.UrgencyImmediate,
			Predicates: []model.Predicate{
				{Field: model.FieldNeuroDeficit, Kind: model.PredIsTrue},
			},
			Imaging: []string{"irm_cerebrale", "scanner_cerebral_sans_injection"},
			Comment: "Céphalée avec déficit neurologique focal: éliminer un AVC, une thrombose veineuse cérébrale ou un processus expansif.",
		},
		{
			ID:       "CONVULSION_001",
			Category: model.CategoryAcuteEmergency,
			Urgency:  model.UrgencyImmediate,
			Predicates: []model.Predicate{
				{Field: model.FieldSeizure, Kind: model.PredIsTrue},
			},
			Imaging: []string{"scanner_cerebral_sans_injection", "irm_cerebrale"},
			Comment: "Céphalée avec crise convulsive inaugurale: éliminer une lésion intracrânienne aiguë.",
		},
		{
			ID:       "TRAUMA_001",
			Category: model.CategoryAcuteEmergency,
			Urgency:  model.UrgencyImmediate,
			Predicates: []model.Predicate{
				{Field: model.FieldTrauma, Kind: model.PredIsTrue},
				{Field: model.FieldProfile, Kind: model.PredEquals, Value: string(model.ProfileAcute)},
			},
			Imaging: []string{"scanner_cerebral_sans_injection"},
			Comment: "Céphalée aiguë post-traumatique: éliminer un hématome intracrânien.",
		},

		// Urgent conditions: imaging within 24-72h.
		{
			ID:       "HTIC_001",
			Category: model.CategoryUrgentConditions,
			Urgency:  model.UrgencyUrgent,
			Predicates: []model.Predicate{
				{Field: model.FieldHTICPattern, Kind: model.PredIsTrue},
			},
			Imaging: []string{"irm_cerebrale", "fond_oeil"},
			Comment: "Tableau d'hypertension intracrânienne: IRM à la recherche d'un processus expansif, fond d'œil pour œdème papillaire.",
		},
		{
			ID:       "PREGNANCY_001",
			Category: model.CategoryUrgentConditions,
			Urgency:  model.UrgencyUrgent,
			Predicates: []model.Predicate{
				{Field: model.FieldPregnancyPostpartum, Kind: model.PredIsTrue},
				{Field: model.FieldProfile, Kind: model.PredEquals, Value: string(model.ProfileAcute)},
			},
			Imaging: []string{"irm_cerebrale", "angio_irm_veineuse"},
			Comment: "Céphalée aiguë de la grossesse ou du post-partum: éliminer une thrombose veineuse cérébrale et une prééclampsie; IRM sans injection privilégiée.",
		},
		{
			ID:       "IMMUNO_001",
			Category: model.CategoryUrgentConditions,
			Urgency:  model.UrgencyUrgent,
			Predicates: []model.Predicate{
				{Field: model.FieldImmunosuppression, Kind: model.PredIsTrue},
			},
			Imaging: []string{"irm_cerebrale_avec_gadolinium"},
			Comment: "Céphalée chez un patient immunodéprimé: éliminer une infection opportuniste ou une localisation secondaire.",
		},
		{
			ID:       "CANCER_001",
			Category: model.CategoryUrgentConditions,
			Urgency:  model.UrgencyUrgent,
			Predicates: []model.Predicate{
				{Field: model.FieldCancerHistory, Kind: model.PredIsTrue},
			},
			Imaging: []string{"irm_cerebrale_avec_gadolinium"},
			Comment: "Céphalée avec antécédent de cancer: éliminer des métastases cérébrales ou une méningite carcinomateuse.",
		},
		{
			ID:       "HORTON_001",
			Category: model.CategoryUrgentConditions,
			Urgency:  model.UrgencyUrgent,
			Predicates: []model.Predicate{
				{Field: model.FieldAge, Kind: model.PredAtLeast, Threshold: 60},
				{Field: model.FieldProfile, Kind: model.PredEquals, Value: string(model.ProfileSubacute)},
			},
			Imaging: []string{"echographie_arteres_temporales", "biopsie_artere_temporale"},
			Comment: "Céphalée récente après 60 ans: éliminer une maladie de Horton, VS/CRP en urgence, risque de cécité.",
		},

		// Delayed evaluation: planned work-up.
		{
			ID:       "POST_PL_001",
			Category: model.CategoryDelayedEvaluation,
			Urgency:  model.UrgencyDelayed,
			Predicates: []model.Predicate{
				{Field: model.FieldRecentPL, Kind: model.PredIsTrue},
			},
			Imaging: nil,
			Comment: "Céphalée post-ponction lombaire ou post-péridurale: syndrome positionnel typique, pas d'imagerie en première intention, blood-patch si persistance.",
		},
		{
			ID:       "PATTERN_CHANGE_001",
			Category: model.CategoryDelayedEvaluation,
			Urgency:  model.UrgencyDelayed,
			Predicates: []model.Predicate{
				{Field: model.FieldPatternChange, Kind: model.PredIsTrue},
				{Field: model.FieldProfile, Kind: model.PredEquals, Value: string(model.ProfileChronic)},
			},
			Imaging: []string{"irm_cerebrale"},
			Comment: "Modification récente d'une céphalée chronique connue: imagerie de réévaluation programmée.",
		},
		{
			ID:       "SUBACUTE_001",
			Category: model.CategoryDelayedEvaluation,
			Urgency:  model.UrgencyDelayed,
			Predicates: []model.Predicate{
				{Field: model.FieldProfile, Kind: model.PredEquals, Value: string(model.ProfileSubacute)},
				{Field: model.FieldOnset, Kind: model.PredEquals, Value: string(model.OnsetProgressive)},
			},
			Imaging: []string{"irm_cerebrale"},
			Comment: "Céphalée subaiguë progressive: imagerie programmée à la recherche d'une cause secondaire.",
		},

		// Benign primary headaches: no imaging.
		{
			ID:       "MIGRAINE_001",
			Category: model.CategoryBenignPrimary,
			Urgency:  model.UrgencyNone,
			Predicates: []model.Predicate{
				{Field: model.FieldHeadacheProfile, Kind: model.PredEquals, Value: string(model.HeadacheMigraineLike)},
				{Field: model.FieldFever, Kind: model.PredIsFalse},
				{Field: model.FieldNeuroDeficit, Kind: model.PredIsFalse},
				{Field: model.FieldMeningealSigns, Kind: model.PredIsFalse},
			},
			Imaging: nil,
			Comment: "Tableau de migraine sans signe d'alarme: pas d'imagerie, traitement de crise et réévaluation clinique.",
		},
		{
			ID:       "TENSION_001",
			Category: model.CategoryBenignPrimary,
			Urgency:  model.UrgencyNone,
			Predicates: []model.Predicate{
				{Field: model.FieldHeadacheProfile, Kind: model.PredEquals, Value: string(model.HeadacheTensionLike)},
				{Field: model.FieldFever, Kind: model.PredIsFalse},
				{Field: model.FieldNeuroDeficit, Kind: model.PredIsFalse},
			},
			Imaging: nil,
			Comment: "Céphalée de tension sans signe d'alarme: pas d'imagerie, prise en charge symptomatique.",
		},

		// Chronic stable headaches.
		{
			ID:       "CHRONIC_001",
			Category: model.CategoryChronicEvaluation,
			Urgency:  model.UrgencyNone,
			Predicates: []model.Predicate{
				{Field: model.FieldProfile, Kind: model.PredEquals, Value: string(model.ProfileChronic)},
				{Field: model.FieldPatternChange, Kind: model.PredIsFalse},
			},
			Imaging: nil,
			Comment: "Céphalée chronique stable sans modification récente: pas d'imagerie systématique, suivi habituel.",
		},
	}
}
