package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dimas292/caturnawa2025-sub004/models"
)

// runInTx выполняет fn внутри одной транзакции. Бизнес-ошибки из fn
// возвращаются как есть (состояние откатывается целиком); сбои begin/commit
// заворачиваются в ErrTransactionFailed, чтобы вызывающий мог повторить.
func runInTx(ctx context.Context, db *sql.DB, logger *slog.Logger, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin: %v", ErrTransactionFailed, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && logger != nil {
			logger.Error("rollback failed", slog.Any("error", rbErr), slog.Any("cause", err))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit: %v", ErrTransactionFailed, err)
	}
	return nil
}

// buildRoundName детерминированно выводит человекочитаемое имя раунда из его
// идентичности. "Sesi" добавляется только на предварительной фазе — так же
// раунды именовались вручную до автоматизации.
func buildRoundName(stage models.Stage, roundNumber, session int) string {
	if stage == models.StagePreliminary {
		return fmt.Sprintf("%s - Round %d Sesi %d", stage, roundNumber, session)
	}
	return fmt.Sprintf("%s - Round %d", stage, roundNumber)
}

// parseRoundName восстанавливает идентичность из имени раунда. Второй
// результат false, если имя не соответствует схеме buildRoundName.
func parseRoundName(name string) (stage models.Stage, roundNumber, session int, ok bool) {
	parts := strings.SplitN(name, " - ", 2)
	if len(parts) != 2 {
		return "", 0, 0, false
	}
	stage, err := models.ParseStage(parts[0])
	if err != nil {
		return "", 0, 0, false
	}

	session = 1
	rest := parts[1]
	if stage == models.StagePreliminary {
		if n, _ := fmt.Sscanf(rest, "Round %d Sesi %d", &roundNumber, &session); n != 2 {
			return "", 0, 0, false
		}
	} else {
		if n, _ := fmt.Sscanf(rest, "Round %d", &roundNumber); n != 1 {
			return "", 0, 0, false
		}
	}
	if roundNumber < 1 || session < 1 {
		return "", 0, 0, false
	}
	return stage, roundNumber, session, true
}
