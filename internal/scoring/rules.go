package scoring

import (
	"github.com/patientpathway/assessment-server/internal/domain"
)

// ruleTable returns the per-instrument scoring rules. The cutoffs are
// the published clinical thresholds for each instrument; they are not
// interchangeable between quizzes and must not be unified.
func ruleTable() map[domain.QuizID]interface{} {
	return map[domain.QuizID]interface{}{
		domain.SNOT22: PointSumRule{
			Bands: []Band{
				{Threshold: 41, Severity: domain.SeveritySevere,
					Interpretation: "Your symptoms suggest severe sinonasal disease.",
					Summary:        "A specialist evaluation is strongly recommended to discuss treatment options."},
				{Threshold: 16, Severity: domain.SeverityModerate,
					Interpretation: "Your symptoms suggest moderate sinonasal disease.",
					Summary:        "Your symptoms are likely affecting your quality of life and may benefit from treatment."},
				{Threshold: 0, Severity: domain.SeverityNormal,
					Interpretation: "Your symptoms are within the normal range.",
					Summary:        "Your sinonasal symptom burden is low."},
			},
		},
		domain.NOSE: PointSumRule{
			PerQuestionMax: 4,
			Bands: []Band{
				{Threshold: 75, Severity: domain.SeveritySevere,
					Interpretation: "You have severe nasal obstruction.",
					Summary:        "Your nasal breathing is significantly impaired; a specialist evaluation is recommended."},
				{Threshold: 50, Severity: domain.SeverityModerate,
					Interpretation: "You have moderate nasal obstruction.",
					Summary:        "Your nasal breathing difficulty is likely noticeable in daily life."},
				{Threshold: 25, Severity: domain.SeverityMild,
					Interpretation: "You have mild nasal obstruction.",
					Summary:        "Your symptoms are mild but worth monitoring."},
				{Threshold: 0, Severity: domain.SeverityNormal,
					Interpretation: "Your nasal breathing is within the normal range.",
					Summary:        "No significant nasal obstruction detected."},
			},
		},
		domain.HHIA: PointSumRule{
			Bands: []Band{
				{Threshold: 44, Severity: domain.SeveritySevere,
					Interpretation: "Your responses suggest a significant hearing handicap.",
					Summary:        "A full audiological evaluation is strongly recommended."},
				{Threshold: 18, Severity: domain.SeverityModerate,
					Interpretation: "Your responses suggest a mild to moderate hearing handicap.",
					Summary:        "A hearing evaluation could help identify options to improve daily communication."},
				{Threshold: 10, Severity: domain.SeverityMild,
					Interpretation: "Your responses suggest a slight hearing handicap.",
					Summary:        "Occasional hearing difficulty detected; consider a baseline hearing test."},
				{Threshold: 0, Severity: domain.SeverityNormal,
					Interpretation: "Your responses suggest no significant hearing handicap.",
					Summary:        "Hearing difficulty does not appear to be limiting your daily life."},
			},
		},
		domain.EPWORTH: PointSumRule{
			Bands: []Band{
				{Threshold: 67, Severity: domain.SeveritySevere,
					Interpretation: "You have severe excessive daytime sleepiness.",
					Summary:        "This level of sleepiness warrants prompt medical evaluation."},
				{Threshold: 42, Severity: domain.SeverityModerate,
					Interpretation: "You have moderate excessive daytime sleepiness.",
					Summary:        "Your daytime sleepiness is above normal and may indicate a sleep disorder."},
				{Threshold: 33, Severity: domain.SeverityMild,
					Interpretation: "You have mild excessive daytime sleepiness.",
					Summary:        "Your daytime sleepiness is slightly above the normal range."},
				{Threshold: 0, Severity: domain.SeverityNormal,
					Interpretation: "Your daytime sleepiness is within the normal range.",
					Summary:        "No excessive daytime sleepiness detected."},
			},
		},
		domain.DHI: PointSumRule{
			Bands: []Band{
				{Threshold: 61, Severity: domain.SeveritySevere,
					Interpretation: "Your dizziness causes a severe handicap.",
					Summary:        "A vestibular evaluation is strongly recommended."},
				{Threshold: 31, Severity: domain.SeverityModerate,
					Interpretation: "Your dizziness causes a moderate handicap.",
					Summary:        "Your dizziness is interfering with daily activities and may benefit from treatment."},
				{Threshold: 14, Severity: domain.SeverityMild,
					Interpretation: "Your dizziness causes a mild handicap.",
					Summary:        "Your dizziness has a limited but measurable impact on daily life."},
				{Threshold: 0, Severity: domain.SeverityNormal,
					Interpretation: "Your dizziness does not cause a significant handicap.",
					Summary:        "No meaningful dizziness-related limitation detected."},
			},
		},
		domain.STOPBANG: CountRule{
			Match: "yes",
			Bands: []Band{
				{Threshold: 50, Severity: domain.SeveritySevere,
					Interpretation: "You are at high risk of obstructive sleep apnea.",
					Summary:        "A sleep study is strongly recommended."},
				{Threshold: 30, Severity: domain.SeverityModerate,
					Interpretation: "You are at intermediate risk of obstructive sleep apnea.",
					Summary:        "Discuss your sleep symptoms with a physician."},
				{Threshold: 0, Severity: domain.SeverityNormal,
					Interpretation: "You are at low risk of obstructive sleep apnea.",
					Summary:        "No significant sleep apnea risk factors detected."},
			},
		},
		domain.TNSS: PointSumRule{
			PerQuestionMax: 3,
			Bands: []Band{
				{Threshold: 75, Severity: domain.SeveritySevere,
					Interpretation: "Your nasal allergy symptoms are severe.",
					Summary:        "Your symptoms warrant evaluation for allergy treatment."},
				{Threshold: 42, Severity: domain.SeverityModerate,
					Interpretation: "Your nasal allergy symptoms are moderate.",
					Summary:        "Your symptoms may respond well to allergy management."},
				{Threshold: 9, Severity: domain.SeverityMild,
					Interpretation: "Your nasal allergy symptoms are mild.",
					Summary:        "Your symptoms are mild; monitor for changes."},
				{Threshold: 0, Severity: domain.SeverityNormal,
					Interpretation: "You have no significant nasal allergy symptoms.",
					Summary:        "Nasal allergy symptom burden is minimal."},
			},
		},
	}
}
