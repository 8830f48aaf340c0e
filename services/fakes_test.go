package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dimas292/caturnawa2025-sub004/models"
	"github.com/dimas292/caturnawa2025-sub004/repositories"
)

// Сервисы трогают *sql.DB только ради Begin/Commit/Rollback: весь SQL живёт
// в репозиториях, которым тесты подставляют in-memory реализации. Заглушечный
// драйвер даёт настоящие транзакции-пустышки без поднятого Postgres.

type stubDriver struct{}

type stubConn struct{}

type stubTx struct{}

func (stubDriver) Open(name string) (driver.Conn, error) { return stubConn{}, nil }

func (stubConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("stub connection does not prepare statements")
}
func (stubConn) Close() error              { return nil }
func (stubConn) Begin() (driver.Tx, error) { return stubTx{}, nil }

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

func init() {
	sql.Register("stubtx", stubDriver{})
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("stubtx", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- competitions ---

type fakeCompetitionRepo struct {
	nextID       int
	competitions map[int]*models.Competition
}

func newFakeCompetitionRepo() *fakeCompetitionRepo {
	return &fakeCompetitionRepo{nextID: 1, competitions: make(map[int]*models.Competition)}
}

func (r *fakeCompetitionRepo) Create(ctx context.Context, competition *models.Competition) error {
	for _, existing := range r.competitions {
		if existing.Type == competition.Type {
			return repositories.ErrCompetitionTypeConflict
		}
	}
	competition.ID = r.nextID
	competition.CreatedAt = time.Now()
	r.nextID++
	clone := *competition
	r.competitions[competition.ID] = &clone
	return nil
}

func (r *fakeCompetitionRepo) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	competition, ok := r.competitions[id]
	if !ok {
		return nil, repositories.ErrCompetitionNotFound
	}
	clone := *competition
	return &clone, nil
}

func (r *fakeCompetitionRepo) GetByType(ctx context.Context, compType models.CompetitionType) (*models.Competition, error) {
	for _, competition := range r.competitions {
		if competition.Type == compType {
			clone := *competition
			return &clone, nil
		}
	}
	return nil, repositories.ErrCompetitionNotFound
}

func (r *fakeCompetitionRepo) List(ctx context.Context) ([]*models.Competition, error) {
	out := make([]*models.Competition, 0, len(r.competitions))
	for _, competition := range r.competitions {
		clone := *competition
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCompetitionRepo) seed(t *testing.T, name string, compType models.CompetitionType) *models.Competition {
	t.Helper()
	competition := &models.Competition{Name: name, Type: compType}
	require.NoError(t, r.Create(context.Background(), competition))
	return competition
}

// --- rounds ---

type fakeRoundRepo struct {
	nextID int
	rounds map[int]*models.Round
}

func newFakeRoundRepo() *fakeRoundRepo {
	return &fakeRoundRepo{nextID: 1, rounds: make(map[int]*models.Round)}
}

func (r *fakeRoundRepo) Create(ctx context.Context, exec repositories.SQLExecutor, round *models.Round) error {
	for _, existing := range r.rounds {
		if existing.CompetitionID == round.CompetitionID &&
			existing.Stage == round.Stage &&
			existing.RoundNumber == round.RoundNumber &&
			existing.Session == round.Session {
			return repositories.ErrRoundIdentityConflict
		}
	}
	round.ID = r.nextID
	round.CreatedAt = time.Now()
	r.nextID++
	clone := *round
	r.rounds[round.ID] = &clone
	return nil
}

func (r *fakeRoundRepo) GetByID(ctx context.Context, id int) (*models.Round, error) {
	round, ok := r.rounds[id]
	if !ok {
		return nil, repositories.ErrRoundNotFound
	}
	clone := *round
	return &clone, nil
}

func (r *fakeRoundRepo) GetByName(ctx context.Context, competitionID int, name string) (*models.Round, error) {
	var oldest *models.Round
	for _, round := range r.rounds {
		if round.CompetitionID != competitionID || round.Name != name {
			continue
		}
		if oldest == nil || round.ID < oldest.ID {
			oldest = round
		}
	}
	if oldest == nil {
		return nil, repositories.ErrRoundNotFound
	}
	clone := *oldest
	return &clone, nil
}

func (r *fakeRoundRepo) FindByIdentity(ctx context.Context, competitionID int, stage models.Stage, roundNumber, session int) (*models.Round, error) {
	for _, round := range r.rounds {
		if round.CompetitionID == competitionID &&
			round.Stage == stage &&
			round.RoundNumber == roundNumber &&
			round.Session == session {
			clone := *round
			return &clone, nil
		}
	}
	return nil, repositories.ErrRoundNotFound
}

func (r *fakeRoundRepo) ListByCompetition(ctx context.Context, competitionID int, stage *models.Stage) ([]*models.Round, error) {
	out := make([]*models.Round, 0)
	for _, round := range r.rounds {
		if round.CompetitionID != competitionID {
			continue
		}
		if stage != nil && round.Stage != *stage {
			continue
		}
		clone := *round
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRoundRepo) UpdateIdentity(ctx context.Context, exec repositories.SQLExecutor, roundID int, roundNumber, session int) error {
	round, ok := r.rounds[roundID]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	round.RoundNumber = roundNumber
	round.Session = session
	return nil
}

func (r *fakeRoundRepo) UpdateMotion(ctx context.Context, exec repositories.SQLExecutor, roundID int, motion *string) error {
	round, ok := r.rounds[roundID]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	round.Motion = motion
	return nil
}

func (r *fakeRoundRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, roundID int) error {
	if _, ok := r.rounds[roundID]; !ok {
		return repositories.ErrRoundNotFound
	}
	delete(r.rounds, roundID)
	return nil
}

// вставка раунда с расхождением имени и идентичности, как его оставляла
// ручная правка данных
func (r *fakeRoundRepo) seedRaw(t *testing.T, round models.Round) *models.Round {
	t.Helper()
	round.ID = r.nextID
	r.nextID++
	clone := round
	r.rounds[round.ID] = &clone
	return &round
}

// --- matches and bookings ---

type fakeMatchRepo struct {
	nextID   int
	matches  map[int]*models.Match
	bookings []models.RoundBooking
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{nextID: 1, matches: make(map[int]*models.Match)}
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	for _, existing := range r.matches {
		if existing.RoundID == match.RoundID && existing.MatchNumber == match.MatchNumber {
			return repositories.ErrMatchNumberConflict
		}
	}
	match.ID = r.nextID
	match.Status = models.MatchStatusScheduled
	match.CreatedAt = time.Now()
	r.nextID++
	clone := *match
	r.matches[match.ID] = &clone
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	clone := *match
	return &clone, nil
}

func (r *fakeMatchRepo) ListByRound(ctx context.Context, roundID int) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	for _, match := range r.matches {
		if match.RoundID == roundID {
			clone := *match
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchNumber < out[j].MatchNumber })
	return out, nil
}

func (r *fakeMatchRepo) UpdateTeams(ctx context.Context, exec repositories.SQLExecutor, matchID int, teams [models.BenchCount]*int) error {
	match, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.Team1ID, match.Team2ID, match.Team3ID, match.Team4ID = teams[0], teams[1], teams[2], teams[3]
	return nil
}

func (r *fakeMatchRepo) UpdateJudge(ctx context.Context, exec repositories.SQLExecutor, matchID int, judgeID *int) error {
	match, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.JudgeID = judgeID
	return nil
}

func (r *fakeMatchRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, matchID int, status models.MatchStatus) error {
	match, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.Status = status
	return nil
}

func (r *fakeMatchRepo) UpdateResult(ctx context.Context, exec repositories.SQLExecutor, matchID int, judgeID int, placements [models.BenchCount]*int, completedAt time.Time) error {
	match, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.JudgeID = &judgeID
	match.FirstPlaceID = placements[0]
	match.SecondPlaceID = placements[1]
	match.ThirdPlaceID = placements[2]
	match.FourthPlaceID = placements[3]
	match.Status = models.MatchStatusCompleted
	match.CompletedAt = &completedAt
	return nil
}

func (r *fakeMatchRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, matchID int) error {
	if _, ok := r.matches[matchID]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.matches, matchID)
	kept := r.bookings[:0]
	for _, booking := range r.bookings {
		if booking.MatchID != matchID {
			kept = append(kept, booking)
		}
	}
	r.bookings = kept
	return nil
}

func (r *fakeMatchRepo) ReplaceBookings(ctx context.Context, exec repositories.SQLExecutor, matchID int, bookings []models.RoundBooking) error {
	kept := make([]models.RoundBooking, 0, len(r.bookings))
	for _, booking := range r.bookings {
		if booking.MatchID != matchID {
			kept = append(kept, booking)
		}
	}
	for _, candidate := range bookings {
		for _, existing := range kept {
			if existing.RoundID == candidate.RoundID && existing.RegistrationID == candidate.RegistrationID {
				return repositories.ErrBookingConflict
			}
		}
		kept = append(kept, candidate)
	}
	r.bookings = kept
	return nil
}

func (r *fakeMatchRepo) ListBookingsByRound(ctx context.Context, roundID int) ([]models.RoundBooking, error) {
	out := make([]models.RoundBooking, 0)
	for _, booking := range r.bookings {
		if booking.RoundID == roundID {
			out = append(out, booking)
		}
	}
	return out, nil
}

// --- registrations ---

type fakeRegistrationRepo struct {
	nextID        int
	registrations map[int]*models.Registration
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{nextID: 1, registrations: make(map[int]*models.Registration)}
}

func (r *fakeRegistrationRepo) GetByID(ctx context.Context, id int) (*models.Registration, error) {
	registration, ok := r.registrations[id]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	clone := *registration
	return &clone, nil
}

func (r *fakeRegistrationRepo) ListByIDs(ctx context.Context, ids []int) (map[int]*models.Registration, error) {
	out := make(map[int]*models.Registration, len(ids))
	for _, id := range ids {
		if registration, ok := r.registrations[id]; ok {
			clone := *registration
			out[id] = &clone
		}
	}
	return out, nil
}

func (r *fakeRegistrationRepo) seed(t *testing.T, competitionID int, teamName string, status models.RegistrationStatus, speakerCount int) *models.Registration {
	t.Helper()
	registration := &models.Registration{
		ID:            r.nextID,
		CompetitionID: competitionID,
		TeamName:      teamName,
		Status:        status,
	}
	for position := 1; position <= speakerCount; position++ {
		registration.Speakers = append(registration.Speakers, models.Speaker{
			ID:             r.nextID*10 + position,
			RegistrationID: r.nextID,
			Position:       position,
			FullName:       teamName,
		})
	}
	r.nextID++
	r.registrations[registration.ID] = registration
	return registration
}

// --- scores ---

type fakeScoreRepo struct {
	nextID  int
	scores  []*models.Score
	matches *fakeMatchRepo
	rounds  *fakeRoundRepo
}

func newFakeScoreRepo(matches *fakeMatchRepo, rounds *fakeRoundRepo) *fakeScoreRepo {
	return &fakeScoreRepo{nextID: 1, matches: matches, rounds: rounds}
}

func (r *fakeScoreRepo) DeleteByMatch(ctx context.Context, exec repositories.SQLExecutor, matchID int) error {
	kept := r.scores[:0]
	for _, score := range r.scores {
		if score.MatchID != matchID {
			kept = append(kept, score)
		}
	}
	r.scores = kept
	return nil
}

func (r *fakeScoreRepo) BatchInsert(ctx context.Context, exec repositories.SQLExecutor, scores []*models.Score) error {
	for _, score := range scores {
		clone := *score
		clone.ID = r.nextID
		clone.CreatedAt = time.Now()
		r.nextID++
		r.scores = append(r.scores, &clone)
	}
	return nil
}

func (r *fakeScoreRepo) ListByMatch(ctx context.Context, matchID int) ([]*models.Score, error) {
	out := make([]*models.Score, 0)
	for _, score := range r.scores {
		if score.MatchID == matchID {
			clone := *score
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeScoreRepo) CountByMatch(ctx context.Context, matchID int) (int, error) {
	count := 0
	for _, score := range r.scores {
		if score.MatchID == matchID {
			count++
		}
	}
	return count, nil
}

func (r *fakeScoreRepo) ExistsByMatch(ctx context.Context, matchID int) (bool, error) {
	count, _ := r.CountByMatch(ctx, matchID)
	return count > 0, nil
}

func (r *fakeScoreRepo) ExistsByRound(ctx context.Context, roundID int) (bool, error) {
	for _, score := range r.scores {
		match, ok := r.matches.matches[score.MatchID]
		if ok && match.RoundID == roundID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeScoreRepo) ListLinesByCompetition(ctx context.Context, competitionID int) ([]models.ScoreLine, error) {
	out := make([]models.ScoreLine, 0)
	for _, score := range r.scores {
		match, ok := r.matches.matches[score.MatchID]
		if !ok || match.Status != models.MatchStatusCompleted {
			continue
		}
		round, ok := r.rounds.rounds[match.RoundID]
		if !ok || round.CompetitionID != competitionID {
			continue
		}
		out = append(out, models.ScoreLine{
			MatchID:        score.MatchID,
			Stage:          round.Stage,
			RegistrationID: score.RegistrationID,
			Points:         score.Points,
			TeamRank:       score.TeamRank,
		})
	}
	return out, nil
}

// --- standings ---

// RecomputeAll пересчитывает соревнования параллельно, поэтому этот фейк
// единственный, кому нужен мьютекс.
type fakeStandingRepo struct {
	mu     sync.Mutex
	nextID int
	rows   []*models.Standing
}

func newFakeStandingRepo() *fakeStandingRepo {
	return &fakeStandingRepo{nextID: 1}
}

func (r *fakeStandingRepo) ReplaceByCompetition(ctx context.Context, exec repositories.SQLExecutor, competitionID int, standings []*models.Standing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[:0]
	for _, row := range r.rows {
		if row.CompetitionID != competitionID {
			kept = append(kept, row)
		}
	}
	r.rows = kept
	for _, standing := range standings {
		clone := *standing
		clone.ID = r.nextID
		r.nextID++
		r.rows = append(r.rows, &clone)
	}
	return nil
}

func (r *fakeStandingRepo) ListByCompetition(ctx context.Context, competitionID int, scope models.StandingScope) ([]*models.Standing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Standing, 0)
	for _, row := range r.rows {
		if row.CompetitionID == competitionID && row.Scope == scope {
			clone := *row
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegistrationID < out[j].RegistrationID })
	return out, nil
}

// --- окружение ---

type testEnv struct {
	db            *sql.DB
	competitions  *fakeCompetitionRepo
	rounds        *fakeRoundRepo
	matches       *fakeMatchRepo
	registrations *fakeRegistrationRepo
	scores        *fakeScoreRepo
	standings     *fakeStandingRepo

	structure  StructureService
	assignment AssignmentService
	scoring    ScoringService
	ranking    StandingsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		db:            newTestDB(t),
		competitions:  newFakeCompetitionRepo(),
		rounds:        newFakeRoundRepo(),
		matches:       newFakeMatchRepo(),
		registrations: newFakeRegistrationRepo(),
		standings:     newFakeStandingRepo(),
	}
	env.scores = newFakeScoreRepo(env.matches, env.rounds)

	logger := discardLogger()
	env.structure = NewStructureService(env.db, env.competitions, env.rounds, env.matches, env.scores, env.registrations, logger)
	env.assignment = NewAssignmentService(env.db, env.matches, env.rounds, env.registrations, logger)
	env.ranking = NewStandingsService(env.db, env.competitions, env.scores, env.standings, env.registrations, logger)
	env.scoring = NewScoringService(env.db, env.matches, env.rounds, env.registrations, env.scores, env.ranking, logger)
	return env
}

// seedScoredRoom прогоняет полный happy path: соревнование, раунд с одной
// комнатой, четыре верифицированные команды, рассадка и подача протокола.
// Возвращает завершённую комнату.
func seedScoredRoom(t *testing.T, env *testEnv) *models.Match {
	t.Helper()
	ctx := context.Background()
	competition := env.competitions.seed(t, "KDBI Nasional", models.CompetitionKDBI)

	result, err := env.structure.EnsureRound(ctx, competition.ID, EnsureRoundInput{
		Stage:       models.StagePreliminary,
		RoundNumber: 1,
		Session:     1,
		RoomCount:   1,
	})
	require.NoError(t, err)
	match := result.Rooms[0]

	teams := make([]*models.Registration, 0, models.BenchCount)
	for i := 0; i < models.BenchCount; i++ {
		teams = append(teams, env.registrations.seed(t, competition.ID, "Team "+string(rune('A'+i)), models.RegistrationVerified, 2))
	}

	_, err = env.assignment.AssignTeams(ctx, match.ID, AssignTeamsInput{
		Team1ID: &teams[0].ID,
		Team2ID: &teams[1].ID,
		Team3ID: &teams[2].ID,
		Team4ID: &teams[3].ID,
	})
	require.NoError(t, err)

	_, err = env.scoring.SubmitScores(ctx, match.ID, SubmitScoresInput{
		JudgeID: 7,
		Team1:   &SpeakerScores{Speaker1: floatPtr(78), Speaker2: floatPtr(77)},
		Team2:   &SpeakerScores{Speaker1: floatPtr(76), Speaker2: floatPtr(75)},
		Team3:   &SpeakerScores{Speaker1: floatPtr(74), Speaker2: floatPtr(73)},
		Team4:   &SpeakerScores{Speaker1: floatPtr(72), Speaker2: floatPtr(71)},
		Ranking: []int{1, 2, 3, 4},
	})
	require.NoError(t, err)

	completed, err := env.matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	return completed
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func stringPtr(v string) *string  { return &v }
