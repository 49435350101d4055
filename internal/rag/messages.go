package rag

// Fixed replies. The contact block is shared by the policy and no-data answers.
const (
	contactBlock = "For further queries contact\nPhone: 0000 1111\nEmail: abcbank@gmail.com\n"

	// DenialMessage answers a query that names another customer.
	DenialMessage = "To avoid security issues,you are not authorized to access another customer's details.\n" +
		"Try Logging out and Login again using that customer's credentials.\n"

	// PolicyMessage answers loan and card eligibility questions.
	PolicyMessage = "Customers can apply for loans or cards through online banking or by visiting the nearest branch.\n\n" +
		"Loan eligibility depends on credit score, income, and existing liabilities.\n\n" +
		"Credit card eligibility depends on account history and income verification.\n" +
		contactBlock

	// NoDataMessage is the fallback when no section answers the query.
	NoDataMessage = "I could not find relevant information for your request.\n" + contactBlock

	// LogoutMessage acknowledges the logout query.
	LogoutMessage = "Logged out successfully."

	// ErrorMessage is recorded as the assistant turn when a collaborator fails.
	ErrorMessage = "Sorry, something went wrong while answering your question. Please try again later."
)
