// Package annotate implements the two generation-backed workflows on stored
// tweets: a sentiment explanation, and a negative-to-positive rewrite that
// persists the result.
package annotate

import (
	"context"
	"fmt"

	"tweetsent/internal/db"
	"tweetsent/internal/domain"
	"tweetsent/internal/genai"
	"tweetsent/internal/textnorm"
)

const explainSystem = "You are an expert in sentiment analysis with deep knowledge of social media language, emojis, and slang. You excel at interpreting both explicit and implicit meaning in tweets."

const rewriteSystem = "You are an expert at converting negative sentiment to positive while preserving the core message and maintaining authenticity. You understand social media language, emojis, and slang."

// promptEmojis renders the extracted emoji set for a prompt, with an
// explicit "None" marker so the model is not left guessing.
func promptEmojis(text string) string {
	if e := textnorm.ExtractEmojis(text); e != "" {
		return e
	}
	return "None"
}

// Explain asks the generator for a detailed sentiment analysis of one tweet.
// The prompt carries the raw text, the normalized text, and the extracted
// emojis so the model sees both surface and cleaned forms. Failures come
// back as a readable message rather than an error: the caller displays the
// result either way.
func Explain(ctx context.Context, gen genai.Generator, tw domain.Tweet) string {
	prompt := fmt.Sprintf(`Analyze the sentiment of the following tweet and provide a detailed analysis:

Original Tweet: %s
Processed Tweet: %s
Emojis: %s

Please provide a comprehensive analysis that includes:
1. Overall sentiment (Positive/Negative)
2. Detailed explanation of the sentiment
3. Analysis of any emojis used and their impact on sentiment
4. Identification of slang language or informal expressions
5. Key themes and patterns in the tweet
6. Cultural or contextual factors that might affect interpretation

Be thorough in your analysis, considering both the explicit text and the implicit meaning conveyed through emojis and slang.`,
		tw.Text, textnorm.Normalize(tw.Text), promptEmojis(tw.Text))

	out, err := gen.Chat(ctx, explainSystem, prompt)
	if err != nil {
		return fmt.Sprintf("Error in sentiment analysis: %v", err)
	}
	return out
}

// RewritePositive asks the generator for a positive version of a negative
// tweet and persists it: the stored text is replaced and the sentiment label
// flipped to positive, in one transaction. The rewritten text is returned.
func RewritePositive(ctx context.Context, gen genai.Generator, factory db.TweetStoreFactory, tw domain.Tweet) (string, error) {
	prompt := fmt.Sprintf(`Convert this negative tweet into a positive one while maintaining its core message:

Original tweet: %s
Processed tweet: %s
Emojis: %s

Please provide a positive version of this tweet that:
1. Maintains the same core message or topic
2. Uses positive language and framing
3. Preserves any relevant emojis or adapts them to match the positive sentiment
4. Keeps a similar tone and style (formal/informal)
5. Addresses the same audience

Provide only the converted positive tweet text.`,
		tw.Text, textnorm.Normalize(tw.Text), promptEmojis(tw.Text))

	rewritten, err := gen.Chat(ctx, rewriteSystem, prompt)
	if err != nil {
		return "", fmt.Errorf("rewrite tweet %d: %w", tw.ID, err)
	}

	store, err := factory(ctx)
	if err != nil {
		return "", fmt.Errorf("open tweet store: %w", err)
	}
	defer store.Close(ctx)

	if err := store.UpdateTweetRewrite(ctx, tw.ID, rewritten, domain.SentimentPositive); err != nil {
		return "", fmt.Errorf("persist rewrite of tweet %d: %w", tw.ID, err)
	}
	return rewritten, nil
}
