package quizgen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/lecsum/internal/quiz"
)

// NoneYet is the digest used when no questions have been asked yet.
const NoneYet = "none yet"

const draftSystemPrompt = `You are an experienced lecturer. Read the lecture material carefully and write %d quiz questions that test whether a student understood it.

Avoid repeats:
- Check the list of recently asked questions.
- Never ask a question that is the same as, or has the same intent as, one on that list. Ask about a different aspect, change the difficulty, or pick another concept.

Question types:
1. multiple_choice: four options, exactly one correct. correct_answer is the exact text of that option.
2. true_false: a factual statement answered with O (true) or X (false). Options are ["O","X"].
3. short_answer: a key term or concept answered in a few words. Options are empty.
4. fill_in_blank: a sentence with a blank written as _____. Options are empty.

Rules:
- Focus on the key concepts a learner must know.
- Use every question type at least once.
- Distractors must be plausible, not obviously wrong.
- Explanations say why the answer is right and why the distractors are wrong.`

const draftExampleContext = `Object-oriented programming (OOP) organises a program into objects that interact with each other.
The four pillars of OOP are encapsulation, inheritance, polymorphism and abstraction.
A class is a blueprint for objects; an instance is a concrete object created from a class.
Inheritance lets a child class reuse the fields and methods of its parent class.`

const draftExampleOutput = `{"quizzes":[` +
	`{"type":"multiple_choice","question":"Which of these is NOT one of the four pillars of OOP?","options":["Encapsulation","Inheritance","Procedural decomposition","Polymorphism"],"correct_answer":"Procedural decomposition","explanation":"The four pillars are encapsulation, inheritance, polymorphism and abstraction. Procedural decomposition belongs to procedural programming."},` +
	`{"type":"true_false","question":"A class is a concrete object created in memory.","options":["O","X"],"correct_answer":"X","explanation":"A class is the blueprint; the instance is the concrete object."},` +
	`{"type":"fill_in_blank","question":"A child class reusing the methods of its parent class is called _____.","options":[],"correct_answer":"inheritance","explanation":"Inheritance allows reuse of parent fields and methods."},` +
	`{"type":"multiple_choice","question":"Which statement about classes and instances is correct?","options":["One class can only produce one instance.","An instance is created from a class.","A class is created from an instance.","Instances cannot have fields."],"correct_answer":"An instance is created from a class.","explanation":"Classes are blueprints from which any number of instances are created."},` +
	`{"type":"short_answer","question":"What does OOP organise a program into?","options":[],"correct_answer":"objects","explanation":"OOP structures programs as interacting objects."}` +
	`]}`

const critiqueSystemPrompt = `You are a strict quiz reviewer. Compare every drafted question with the lecture material and check:
1. Fact check: the correct answer and explanation must agree with the material. Nothing may be invented.
2. Logic: exactly one option is correct, the answer is among the options, and the question is unambiguous.
3. Redundancy: no two questions test the same thing.

Answer "no_changes" with an empty fixes list when every question passes.
Otherwise answer "corrections" and list one fix per faulty question, using its 0-based index. Do not list questions that are fine.`

const refineSystemPrompt = `You are a quiz editor. Rewrite only the questions named in the review so that each issue is resolved according to its instruction, staying faithful to the lecture material.

Return the complete quiz with the same number of questions in the same order. Copy every question that the review does not mention unchanged.`

// buildDigest renders recent questions as a numbered list, or NoneYet.
// A list holding only NoneYet counts as empty.
func buildDigest(recent []string, max int) string {
	if len(recent) == 0 || (len(recent) == 1 && strings.EqualFold(strings.TrimSpace(recent[0]), NoneYet)) {
		return NoneYet
	}
	if max > 0 && len(recent) > max {
		recent = recent[:max]
	}

	var b strings.Builder
	for i, q := range recent {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildDraftMessage(material, digest string) string {
	var b strings.Builder
	b.WriteString("[Lecture material]\n")
	b.WriteString(material)
	b.WriteString("\n\n[Recently asked questions (do not repeat)]\n")
	b.WriteString(digest)
	return b.String()
}

// renderQuiz renders items as indexed JSON so the reviewer can cite positions.
func renderQuiz(items []quiz.Item) string {
	type indexed struct {
		Index int `json:"index"`
		quiz.Item
	}
	out := make([]indexed, len(items))
	for i, it := range items {
		it.ID = 0
		out[i] = indexed{Index: i, Item: it}
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return string(data)
}

func buildCritiqueMessage(material string, draft []quiz.Item) string {
	var b strings.Builder
	b.WriteString("[Lecture material]\n")
	b.WriteString(material)
	b.WriteString("\n\n[Draft quiz]\n")
	b.WriteString(renderQuiz(draft))
	return b.String()
}

func buildRefineMessage(material string, draft []quiz.Item, fixes []ItemFix) string {
	var b strings.Builder
	b.WriteString("[Lecture material]\n")
	b.WriteString(material)
	b.WriteString("\n\n[Draft quiz]\n")
	b.WriteString(renderQuiz(draft))
	b.WriteString("\n\n[Review]\n")
	for _, f := range fixes {
		fmt.Fprintf(&b, "- index %d: %s\n  fix: %s\n", f.Index, f.Issue, f.Instruction)
	}
	return strings.TrimRight(b.String(), "\n")
}
