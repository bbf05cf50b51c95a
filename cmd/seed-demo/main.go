package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/classpoint/cbt-backend/internal/config"
	"github.com/classpoint/cbt-backend/internal/database"
	"github.com/classpoint/cbt-backend/internal/logger"
	"github.com/classpoint/cbt-backend/internal/model"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	fmt.Println("=== Seeding demo data ===")

	// ─── Halls ─────────────────────────────────────────────────────────
	halls := []struct {
		name  string
		seats int
	}{
		{"Main Hall", 120},
		{"ICT Lab A", 40},
		{"ICT Lab B", 40},
	}
	for _, h := range halls {
		_, err := pool.Exec(ctx,
			`INSERT INTO exam_halls (name, number_of_seats)
			 VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			h.name, h.seats)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed halls")
		}
	}
	fmt.Println("Seeded exam halls")

	// ─── Subject + Topic ───────────────────────────────────────────────
	var subjectID int
	err = pool.QueryRow(ctx,
		`INSERT INTO subjects (name) VALUES ('Mathematics')
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`).Scan(&subjectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed subject")
	}

	var topicID int
	err = pool.QueryRow(ctx,
		`INSERT INTO topics (subject_id, name) VALUES ($1, 'Algebra')
		 ON CONFLICT (subject_id, name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`, subjectID).Scan(&topicID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed topic")
	}
	fmt.Printf("Seeded subject %d / topic %d\n", subjectID, topicID)

	// ─── Questions ─────────────────────────────────────────────────────
	questionIDs := make([]uuid.UUID, 0, 20)
	for i := 1; i <= 20; i++ {
		id := uuid.New()
		_, err := pool.Exec(ctx,
			`INSERT INTO questions
			 (id, subject_id, topic_id, question_text, question_type, options, correct_answer, marks, verified)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)`,
			id, subjectID, topicID,
			fmt.Sprintf("What is %d + %d?", i, i),
			string(model.QuestionTypeMultipleChoice),
			fmt.Sprintf(`["%d","%d","%d","%d"]`, 2*i, 2*i+1, 2*i-1, 2*i+2),
			fmt.Sprintf("%d", 2*i),
			5)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed questions")
		}
		questionIDs = append(questionIDs, id)
	}
	fmt.Printf("Seeded %d questions\n", len(questionIDs))

	// ─── Exam ──────────────────────────────────────────────────────────
	examID := uuid.New()
	_, err = pool.Exec(ctx,
		`INSERT INTO exams
		 (id, title, subject_id, duration_minutes, total_marks, pass_mark,
		  randomize_questions, question_selection_count, status)
		 VALUES ($1, 'Mathematics Entrance Exam', $2, 60, 100, 50, TRUE, 10, 'PUBLISHED')`,
		examID, subjectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed exam")
	}
	for i, qid := range questionIDs {
		_, err := pool.Exec(ctx,
			`INSERT INTO exam_questions (exam_id, question_id, order_num) VALUES ($1, $2, $3)`,
			examID, qid, i+1)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to assign questions")
		}
	}
	fmt.Printf("Seeded exam %s\n", examID)

	// ─── Students ──────────────────────────────────────────────────────
	names := []string{
		"Adaeze Okafor", "Brian Mensah", "Chiamaka Eze", "Daniel Osei", "Esther Adeyemi",
		"Femi Balogun", "Grace Mwangi", "Hassan Bello", "Ifeoma Nwosu", "James Kariuki",
		"Kemi Adebayo", "Liam Appiah", "Mariam Diallo", "Nnamdi Okeke", "Olivia Asante",
		"Peter Njoroge", "Quincy Boateng", "Ruth Chukwu", "Samuel Otieno", "Tolu Akintola",
		"Uche Obi", "Victor Kamau", "Wunmi Salami", "Xavier Owusu", "Yemi Falade",
		"Zainab Yusuf", "Abel Tesfaye", "Binta Sow", "Chidi Anene", "Dora Quartey",
		"Emeka Ude", "Fatima Sanni", "Gideon Mutua", "Halima Abdullahi", "Ikenna Mba",
		"Joy Wanjiru", "Kofi Asamoah", "Lola Shittu", "Musa Ibrahim", "Ngozi Okonkwo",
		"Obi Nwachukwu", "Patience Oduya", "Rashida Kone", "Seyi Ogunleye", "Tari Briggs",
		"Uzo Aduba", "Vera Mensima", "Wale Adenuga", "Yusuf Garba", "Zuri Wekesa",
	}

	successCount := 0
	for i, name := range names {
		admissionNo := fmt.Sprintf("ADM%04d", i+1)
		_, err := pool.Exec(ctx,
			`INSERT INTO students (admission_no, name, level)
			 VALUES ($1, $2, 'SS3') ON CONFLICT (admission_no) DO NOTHING`,
			admissionNo, name)
		if err != nil {
			fmt.Printf("Error creating student %s (%s): %v\n", name, admissionNo, err)
			continue
		}
		successCount++
		if (i+1)%10 == 0 {
			fmt.Printf("Created %d students...\n", i+1)
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d students.\n", successCount, len(names))
}
