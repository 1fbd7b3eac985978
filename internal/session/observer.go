package session

// Observer is notified at the boundaries of every supervised attempt.
// Every OnSessionStart is matched by exactly one OnSessionFinished.
type Observer interface {
	OnSessionStart(s *Session)
	OnSessionFinished(s *Session)
}

// ObserverFuncs adapts plain functions to Observer; nil members are skipped.
type ObserverFuncs struct {
	Start    func(s *Session)
	Finished func(s *Session)
}

func (f ObserverFuncs) OnSessionStart(s *Session) {
	if f.Start != nil {
		f.Start(s)
	}
}

func (f ObserverFuncs) OnSessionFinished(s *Session) {
	if f.Finished != nil {
		f.Finished(s)
	}
}

// Observers fans events out in order.
type Observers []Observer

func (o Observers) OnSessionStart(s *Session) {
	for _, obs := range o {
		if obs != nil {
			obs.OnSessionStart(s)
		}
	}
}

func (o Observers) OnSessionFinished(s *Session) {
	for _, obs := range o {
		if obs != nil {
			obs.OnSessionFinished(s)
		}
	}
}
