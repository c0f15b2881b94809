package tutoring

const (
	firstSessionGreeting = "Hi, I'm Tessa, your tutor. You can talk to me out loud or type below, " +
		"and I'll keep notes on the blackboard as we go. What would you like to start with?"

	returningSessionGreeting = "Welcome back! Ready to pick up where we left off?"
)

// Greeting derives the one-shot opening utterance for a conversation from
// its ordinal within the process lifetime. The first conversation gets the
// onboarding message, every later one the resume message.
func Greeting(sessionOrdinal int) string {
	if sessionOrdinal <= 1 {
		return firstSessionGreeting
	}
	return returningSessionGreeting
}
