package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Pushkar524/exam-seat-allotment/internal/allocator"
	"github.com/Pushkar524/exam-seat-allotment/internal/dto"
	"github.com/Pushkar524/exam-seat-allotment/internal/repository"
	"github.com/Pushkar524/exam-seat-allotment/internal/service"
	"github.com/Pushkar524/exam-seat-allotment/pkg/cache"
	"github.com/Pushkar524/exam-seat-allotment/pkg/config"
	"github.com/Pushkar524/exam-seat-allotment/pkg/database"
	"github.com/Pushkar524/exam-seat-allotment/pkg/export"
	"github.com/Pushkar524/exam-seat-allotment/pkg/lock"
	"github.com/Pushkar524/exam-seat-allotment/pkg/logger"
	"github.com/Pushkar524/exam-seat-allotment/pkg/metrics"
	"github.com/Pushkar524/exam-seat-allotment/pkg/storage"
)

// app holds the wired dependencies shared by all commands.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	allocation *service.AllocationService
	coverage   *service.CoverageService
	recorder   *metrics.Recorder
	close      func()
}

var current *app

func initApp() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}

	closers := []func(){func() { _ = db.Close() }, func() { _ = logr.Sync() }}

	// The scope lock is optional wiring: without Redis, runs still work
	// but concurrent runs against one scope are not serialized.
	var locker *lock.ScopeLock
	if redisClient, redisErr := cache.NewRedis(cfg.Redis); redisErr != nil {
		logr.Warn("redis unavailable, scope locking disabled", zap.Error(redisErr))
	} else {
		locker = lock.NewScopeLock(redisClient, cfg.Allocation.ScopeLockTTL)
		closers = append(closers, func() { _ = redisClient.Close() })
	}

	recorder := metrics.NewRecorder()

	students := repository.NewStudentRepository(db)
	rooms := repository.NewRoomRepository(db)
	subjects := repository.NewSubjectRepository(db)
	seats := repository.NewSeatAssignmentRepository(db)
	invigilators := repository.NewInvigilatorRepository(db)

	coverage := service.NewCoverageService(seats, invigilators, recorder, logr)

	var scopeLocker interface {
		Acquire(ctx context.Context, scopeKey string) (*lock.Handle, bool, error)
		Release(ctx context.Context, h *lock.Handle) error
	}
	if locker != nil {
		scopeLocker = locker
	}

	allocation := service.NewAllocationService(
		students,
		rooms,
		subjects,
		seats,
		db,
		scopeLocker,
		recorder,
		coverage,
		nil,
		logr,
		service.AllocationConfig{
			DefaultRoomCapacity:  cfg.Allocation.DefaultRoomCapacity,
			MaxSampleUnallocated: cfg.Allocation.MaxSampleUnallocated,
		},
	)

	current = &app{
		cfg:        cfg,
		logger:     logr,
		allocation: allocation,
		coverage:   coverage,
		recorder:   recorder,
		close: func() {
			for _, fn := range closers {
				fn()
			}
		},
	}
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "allocator",
		Short: "Examination seat allocation engine",
		Long:  "Allocates examination seats into rooms under capacity, grouping and adjacency constraints, and records invigilator coverage.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if current == nil {
				return
			}
			if url := current.cfg.Metrics.PushgatewayURL; url != "" {
				if err := current.recorder.Push(url, "allocator"); err != nil {
					current.logger.Warn("metrics push failed", zap.Error(err))
				}
			}
			current.close()
		},
	}

	rootCmd.AddCommand(planCmd(), runCmd(), coverageCmd(), chartCmd())

	if err := rootCmd.Execute(); err != nil {
		log.SetFlags(0)
		log.Fatal(err)
	}
}

func requestFlags(cmd *cobra.Command, req *dto.AllocationRequest, roomNos *string) {
	cmd.Flags().StringVar(&req.ScopeKey, "scope", "", "exam scope key, e.g. 2026-SEM1-CS (required)")
	cmd.Flags().StringVar(&req.Pattern, "pattern", allocator.PatternColumnInterleaved,
		"seating pattern: "+strings.Join(allocator.Patterns(), ", "))
	cmd.Flags().StringVar(&req.GroupingKey, "group-by", string(allocator.GroupByDepartment), "grouping key: department, academic_year, subject")
	cmd.Flags().IntVar(&req.StudentsPerBench, "students-per-bench", 0, "limit seats used per bench (0 keeps each room's layout unless ALLOCATION_STUDENTS_PER_BENCH is set)")
	cmd.Flags().StringVar(roomNos, "rooms", "", "comma-separated room numbers (empty uses all rooms)")
	cmd.Flags().StringVar(&req.Department, "department", "", "restrict the roster to one department")
	cmd.Flags().IntVar(&req.AcademicYear, "year", 0, "restrict the roster to one academic year")
	_ = cmd.MarkFlagRequired("scope")
}

func planCmd() *cobra.Command {
	var req dto.AllocationRequest
	var roomNos string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview an allocation without committing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.RoomNos = splitRooms(roomNos)
			applyDefaults(&req)
			resp, err := current.allocation.Preview(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	requestFlags(cmd, &req, &roomNos)
	return cmd
}

func runCmd() *cobra.Command {
	var req dto.AllocationRequest
	var roomNos string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an allocation and commit it atomically",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.RoomNos = splitRooms(roomNos)
			applyDefaults(&req)
			resp, err := current.allocation.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	requestFlags(cmd, &req, &roomNos)
	cmd.Flags().BoolVar(&req.AssignCoverage, "assign-coverage", false, "assign invigilators to occupied rooms after committing")
	return cmd
}

func coverageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Manage invigilator coverage for a scope",
	}
	cmd.AddCommand(coverageAssignCmd(), coverageListCmd(), coverageUnassignCmd())
	return cmd
}

func coverageAssignCmd() *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign invigilators to occupied rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := current.coverage.Assign(cmd.Context(), scope)
			if err != nil {
				return err
			}
			return printJSON(summary)
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "exam scope key (required)")
	_ = cmd.MarkFlagRequired("scope")
	return cmd
}

func coverageListCmd() *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show a scope's current coverage",
		RunE: func(cmd *cobra.Command, args []string) error {
			assignments, err := current.coverage.List(cmd.Context(), scope)
			if err != nil {
				return err
			}
			return printJSON(assignments)
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "exam scope key (required)")
	_ = cmd.MarkFlagRequired("scope")
	return cmd
}

func coverageUnassignCmd() *cobra.Command {
	var scope, room string
	cmd := &cobra.Command{
		Use:   "unassign",
		Short: "Remove a room's coverage so it can be reassigned",
		RunE: func(cmd *cobra.Command, args []string) error {
			return current.coverage.Unassign(cmd.Context(), scope, room)
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "exam scope key (required)")
	cmd.Flags().StringVar(&room, "room", "", "room number (required)")
	_ = cmd.MarkFlagRequired("scope")
	_ = cmd.MarkFlagRequired("room")
	return cmd
}

func chartCmd() *cobra.Command {
	var scope, outDir string
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Export a scope's committed seating chart as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			assignments, err := current.allocation.ListAssignments(cmd.Context(), scope)
			if err != nil {
				return err
			}
			if len(assignments) == 0 {
				return fmt.Errorf("no committed assignments for scope %s", scope)
			}

			records := make([]export.SeatRecord, 0, len(assignments))
			for _, a := range assignments {
				records = append(records, export.SeatRecord{
					RoomNo:     a.RoomNo,
					SeatNumber: a.SeatNumber,
					RollNo:     a.RollNo,
					GroupKey:   a.GroupKey,
				})
			}
			data, err := export.SeatingChart(records)
			if err != nil {
				return err
			}

			archive, err := storage.NewChartArchive(outDir)
			if err != nil {
				return err
			}
			path, err := archive.Save(scope+".csv", data)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "exam scope key (required)")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default ./charts)")
	_ = cmd.MarkFlagRequired("scope")
	return cmd
}

// applyDefaults fills request fields the caller left unset from config.
func applyDefaults(req *dto.AllocationRequest) {
	if req.StudentsPerBench == 0 {
		req.StudentsPerBench = current.cfg.Allocation.StudentsPerBench
	}
}

func splitRooms(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	rooms := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			rooms = append(rooms, trimmed)
		}
	}
	return rooms
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
