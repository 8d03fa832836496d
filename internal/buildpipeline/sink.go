package buildpipeline

// ChannelSink sends every event on Ch; it blocks while the receiver lags.
// A nil channel drops events.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(ev Event) {
	if s.Ch != nil {
		s.Ch <- ev
	}
}

// FuncSink calls the function for every event.
type FuncSink func(Event)

func (f FuncSink) OnEvent(ev Event) {
	if f != nil {
		f(ev)
	}
}
