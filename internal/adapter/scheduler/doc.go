// Package scheduler реализует цикл демона cron.
//
// На каждом тике Scheduler обходит реестр в порядке добавления задач,
// спрашивает у расписания каждой задачи, due ли она сейчас, запускает due-задачи
// через executor.Executor и передает ровно один исход на задачу в Reporter.
//
//	s := scheduler.New(scheduler.Config{
//		Registry:  registry,
//		Executors: executor.Set{External: executor.NewExternal(), Internal: internal},
//		Reporter:  scheduler.NewLogReporter(logger),
//		Logger:    logger,
//	})
//	err := s.Run(ctx) // блокируется до отмены ctx или Stop
//
// Гарантии:
//   - первый тик сразу после Run, дальше через Interval от начала предыдущего;
//   - ошибка или паника одной задачи дает Failed и не мешает остальным;
//   - паника репортера логируется и не роняет цикл;
//   - остановка учитывается только между тиками, начатый тик завершается;
//   - по умолчанию задача срабатывает не больше одного раза в момент расписания
//     (минуту или секунду), даже если тики чаще (см. RefirePolicy).
package scheduler
