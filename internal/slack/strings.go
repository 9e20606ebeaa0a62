package slack

// Reply strings for the chat channel. Kept in one place so handlers stay
// focused on behavior and tests can assert against the exact wording.

const (
	// HelpMessage lists every command the bot understands.
	HelpMessage = "Here's what I can do:\n" +
		"• `ping` — check that I'm alive\n" +
		"• `help` — show this message\n" +
		"• `info` — show server statistics\n" +
		"• `info {username}` — show info about a volunteer\n" +
		"• `blacklist {username}` — toggle the blacklist flag for a volunteer\n" +
		"• `reset {username}` — toggle the Code of Conduct flag for a volunteer\n" +
		"• `watchstatus {username}` — show the watch status for a volunteer\n" +
		"• `dadjoke [@someone]` — you know what this does"

	// ErrMissingUsername is sent when a command that needs a username got none.
	ErrMissingUsername = "Sorry, but it looks like you forgot to add a username. Try again?"
	// ErrTooManyParams is sent when a command got more arguments than it takes.
	ErrTooManyParams = "Sorry, but that's too many arguments for this command. Try again?"
	// ErrUnknownRequest is sent when no registered command matches the message.
	ErrUnknownRequest = "Sorry, I'm not sure what you're asking for. Type `help` to see what I can do!"
	// ErrEmptyMessage is sent when the message was only a mention with no text.
	ErrEmptyMessage = "Sorry, I wasn't able to get text out of that message. Try again?"
	// ErrMessageParse is sent when the message shape could not be understood at all.
	ErrMessageParse = "Sorry, something went wrong and I wasn't able to parse that message."

	serverSummary = "Here's the current state of the server:\n```\n%s\n```"

	unknownUsername = "Sorry, I'm not sure who u/%s is. Double-check the spelling and try again?"
	unknownPayload  = "Sorry, but I can't process the action `%s`."

	blacklistSuccess = "u/%s has been blacklisted. They can no longer claim or complete posts."
	blacklistUndo    = "u/%s is no longer blacklisted. Welcome back!"

	cocResetSuccess = "u/%s will be asked to accept the Code of Conduct again before their next claim."
	cocResetUndo    = "u/%s has been marked as having accepted the Code of Conduct."

	watchStatusMessage = "Watch status for u/%s: %s"

	dadjokeMessage = "Hey %s, have you heard this one?\n\n%s"
	// FallbackJoke is used whenever the external joke source is unavailable.
	FallbackJoke = "What did the ocean say to the beach? Nothing, it just waved."

	sponsorUpdate = "%s GitHub Sponsors: [%s] %s (%s)"

	// ErrInternal is the catch-all reply when a handler hits a backend failure.
	ErrInternal = "Sorry, something went wrong on my end. Try again in a little bit?"

	submissionKept    = "Thank you! This submission has been kept."
	submissionRemoved = "Submission ID %d has been removed from the queue."
)
