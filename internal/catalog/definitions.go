package catalog

import (
	"fmt"

	"github.com/patientpathway/assessment-server/internal/domain"
)

// Option sets shared by uniform instruments. Labels embed the numeric
// weight the way the published instruments print them; the structural
// Value field is what scoring actually uses.

func snotOptions() []domain.Option {
	return []domain.Option{
		{Label: "0 - No Problem", Value: 0},
		{Label: "1 - Very Mild Problem", Value: 1},
		{Label: "2 - Mild Problem", Value: 2},
		{Label: "3 - Moderate Problem", Value: 3},
		{Label: "4 - Severe Problem", Value: 4},
		{Label: "5 - Problem As Bad As It Can Be", Value: 5},
	}
}

func noseOptions() []domain.Option {
	return []domain.Option{
		{Label: "0 - Not a Problem", Value: 0},
		{Label: "1 - Very Mild Problem", Value: 1},
		{Label: "2 - Moderate Problem", Value: 2},
		{Label: "3 - Fairly Bad Problem", Value: 3},
		{Label: "4 - Severe Problem", Value: 4},
	}
}

func yesSometimesNo() []domain.Option {
	return []domain.Option{
		{Label: "No", Value: 0},
		{Label: "Sometimes", Value: 2},
		{Label: "Yes", Value: 4},
	}
}

func epworthOptions() []domain.Option {
	return []domain.Option{
		{Label: "0 - Would Never Doze", Value: 0},
		{Label: "1 - Slight Chance of Dozing", Value: 1},
		{Label: "2 - Moderate Chance of Dozing", Value: 2},
		{Label: "3 - High Chance of Dozing", Value: 3},
	}
}

func yesNo() []domain.Option {
	return []domain.Option{
		{Label: "No", Value: 0},
		{Label: "Yes", Value: 1},
	}
}

func tnssOptions() []domain.Option {
	return []domain.Option{
		{Label: "0 - No Symptoms", Value: 0},
		{Label: "1 - Mild Symptoms", Value: 1},
		{Label: "2 - Moderate Symptoms", Value: 2},
		{Label: "3 - Severe Symptoms", Value: 3},
	}
}

// questions builds a uniform-option question list with sequential ids.
func questions(idPrefix string, options []domain.Option, texts ...string) []domain.Question {
	qs := make([]domain.Question, len(texts))
	for i, text := range texts {
		qs[i] = domain.Question{
			ID:      fmt.Sprintf("%s_q%d", idPrefix, i+1),
			Text:    text,
			Options: options,
		}
	}
	return qs
}

// definitions returns the authored quiz set. MaxScore is written out per
// instrument; the catalog tests assert it matches the highest-value
// option path for uniform instruments.
func definitions() []*domain.QuizDefinition {
	return []*domain.QuizDefinition{
		{
			ID:          domain.SNOT22,
			Title:       "SNOT-22 Sinonasal Outcome Test",
			Description: "22-item assessment of sinonasal symptom burden and its impact on quality of life.",
			MaxScore:    110,
			Questions: questions("snot22", snotOptions(),
				"Need to blow your nose",
				"Sneezing",
				"Runny nose",
				"Cough",
				"Post-nasal discharge (dripping at the back of your throat)",
				"Thick nasal discharge",
				"Ear fullness",
				"Dizziness",
				"Ear pain or pressure",
				"Facial pain or pressure",
				"Difficulty falling asleep",
				"Waking up at night",
				"Lack of a good night's sleep",
				"Waking up tired",
				"Fatigue during the day",
				"Reduced productivity",
				"Reduced concentration",
				"Frustrated, restless, or irritable",
				"Sad",
				"Embarrassed",
				"Decreased sense of taste or smell",
				"Blockage or congestion of the nose",
			),
		},
		{
			ID:          domain.NOSE,
			Title:       "NOSE Nasal Obstruction Symptom Evaluation",
			Description: "5-item assessment of nasal obstruction severity over the past month.",
			MaxScore:    20,
			Questions: questions("nose", noseOptions(),
				"Nasal congestion or stuffiness",
				"Nasal blockage or obstruction",
				"Trouble breathing through my nose",
				"Trouble sleeping",
				"Unable to get enough air through my nose during exercise or exertion",
			),
		},
		{
			ID:          domain.HHIA,
			Title:       "HHIA Hearing Handicap Inventory for Adults",
			Description: "25-item assessment of the social and emotional impact of hearing loss.",
			MaxScore:    100,
			Questions: questions("hhia", yesSometimesNo(),
				"Does a hearing problem cause you to use the phone less often than you would like?",
				"Does a hearing problem cause you to feel embarrassed when meeting new people?",
				"Does a hearing problem cause you to avoid groups of people?",
				"Does a hearing problem make you irritable?",
				"Does a hearing problem cause you to feel frustrated when talking to members of your family?",
				"Does a hearing problem cause you difficulty when attending a party?",
				"Does a hearing problem cause you to feel stressed or tense?",
				"Does a hearing problem cause you difficulty when listening to TV or radio?",
				"Do you feel that any difficulty with your hearing limits your personal or social life?",
				"Does a hearing problem cause you difficulty when in a restaurant with family or friends?",
				"Does a hearing problem cause you to feel depressed?",
				"Does a hearing problem cause you to ask family members to repeat themselves?",
				"Does a hearing problem cause you to avoid travelling?",
				"Does a hearing problem cause you to have arguments with family members?",
				"Does a hearing problem cause you difficulty at the movies or theatre?",
				"Does a hearing problem cause you to go shopping less often than you would like?",
				"Does any problem or difficulty with your hearing upset you?",
				"Does a hearing problem cause you to want to be by yourself?",
				"Does a hearing problem cause you to talk to family members less often than you would like?",
				"Do you feel that any difficulty with your hearing lessens or limits your work?",
				"Does a hearing problem cause you difficulty when visiting friends, relatives, or neighbours?",
				"Does a hearing problem cause you to listen to TV or radio more quietly or loudly than others prefer?",
				"Does a hearing problem leave you feeling left out when you are with a group of people?",
				"Does a hearing problem cause you to feel uncomfortable when talking to friends?",
				"Does a hearing problem cause you to feel nervous in new situations?",
			),
		},
		{
			ID:          domain.EPWORTH,
			Title:       "Epworth Sleepiness Scale",
			Description: "8-item assessment of daytime sleepiness: how likely are you to doze off in each situation?",
			MaxScore:    24,
			Questions: questions("epworth", epworthOptions(),
				"Sitting and reading",
				"Watching TV",
				"Sitting inactive in a public place (e.g. a theatre or a meeting)",
				"As a passenger in a car for an hour without a break",
				"Lying down to rest in the afternoon when circumstances permit",
				"Sitting and talking to someone",
				"Sitting quietly after a lunch without alcohol",
				"In a car, while stopped for a few minutes in traffic",
			),
		},
		{
			ID:          domain.DHI,
			Title:       "DHI Dizziness Handicap Inventory",
			Description: "25-item assessment of the functional, emotional, and physical impact of dizziness.",
			MaxScore:    100,
			Questions: questions("dhi", yesSometimesNo(),
				"Does looking up increase your problem?",
				"Because of your problem, do you feel frustrated?",
				"Because of your problem, do you restrict your travel for business or recreation?",
				"Does walking down the aisle of a supermarket increase your problem?",
				"Because of your problem, do you have difficulty getting into or out of bed?",
				"Does your problem significantly restrict your participation in social activities?",
				"Because of your problem, do you have difficulty reading?",
				"Does performing more ambitious activities like sports or dancing increase your problem?",
				"Because of your problem, are you afraid to leave your home without having someone accompany you?",
				"Because of your problem, have you been embarrassed in front of others?",
				"Do quick movements of your head increase your problem?",
				"Because of your problem, do you avoid heights?",
				"Does turning over in bed increase your problem?",
				"Because of your problem, is it difficult for you to do strenuous housework or yard work?",
				"Because of your problem, are you afraid people may think you are intoxicated?",
				"Because of your problem, is it difficult for you to go for a walk by yourself?",
				"Does walking down a sidewalk increase your problem?",
				"Because of your problem, is it difficult for you to concentrate?",
				"Because of your problem, is it difficult for you to walk around your house in the dark?",
				"Because of your problem, are you afraid to stay home alone?",
				"Because of your problem, do you feel handicapped?",
				"Has your problem placed stress on your relationships with members of your family or friends?",
				"Because of your problem, are you depressed?",
				"Does your problem interfere with your job or household responsibilities?",
				"Does bending over increase your problem?",
			),
		},
		{
			ID:          domain.STOPBANG,
			Title:       "STOP-Bang Sleep Apnea Screening",
			Description: "8-item yes/no screening for obstructive sleep apnea risk.",
			MaxScore:    8,
			Questions: questions("stopbang", yesNo(),
				"Do you snore loudly (louder than talking or loud enough to be heard through closed doors)?",
				"Do you often feel tired, fatigued, or sleepy during the daytime?",
				"Has anyone observed you stop breathing during your sleep?",
				"Do you have, or are you being treated for, high blood pressure?",
				"Is your body mass index more than 35?",
				"Are you over 50 years old?",
				"Is your neck circumference greater than 40 cm?",
				"Are you male?",
			),
		},
		{
			ID:          domain.TNSS,
			Title:       "TNSS Total Nasal Symptom Score",
			Description: "4-item assessment of nasal allergy symptom severity over the past 12 hours.",
			MaxScore:    12,
			Questions: questions("tnss", tnssOptions(),
				"Nasal congestion",
				"Runny nose",
				"Sneezing",
				"Nasal itching",
			),
		},
	}
}
