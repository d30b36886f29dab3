package catalog

import "github.com/ramionh/thrive-well-guide-sub001/internal/models"

// The default program. Ids carry intentional gaps left by retired exercises;
// new steps are appended with fresh ids, never renumbered.

// StartingPointSteps are the intake and self-assessment exercises (ids < 18).
var StartingPointSteps = []models.StepDescriptor{
	{ID: 1, Title: "Welcome", Description: "How the program works and what to expect each week."},
	{ID: 2, Title: "Where You Are Now", Description: "A snapshot of your current health across sleep, nutrition, movement and stress.", FormKey: "current_state"},
	{ID: 3, Title: "Core Values", Description: "Name the personal values that will anchor your change.", FormKey: "core_values"},
	{ID: 4, Title: "Your Why", Description: "Write down why this change matters to you right now.", FormKey: "motivation_why"},
	{ID: 5, Title: "Health History", Description: "Past attempts, what worked, what didn't.", FormKey: "health_history"},
	{ID: 7, Title: "Readiness Ruler", Description: "Rate how ready, willing and able you feel on a 1-10 scale.", FormKey: "readiness_ruler"},
	{ID: 8, Title: "Confidence Ruler", Description: "Rate your confidence that you can follow through.", FormKey: "confidence_ruler"},
	{ID: 10, Title: "Support Circle", Description: "Who around you helps, and who makes change harder.", FormKey: "support_circle"},
	{ID: 11, Title: "Daily Rhythm", Description: "Map a typical weekday and weekend day.", FormKey: "daily_rhythm"},
	{ID: 13, Title: "Stress Inventory", Description: "Identify your main stressors and current coping habits.", FormKey: "stress_inventory"},
	{ID: 14, Title: "Defining Success", Description: "Describe what a successful six months looks like in your own words.", FormKey: "defining_success"},
	{ID: 16, Title: "Starting Point Review", Description: "A look back over your intake answers before charting the path ahead."},
	{ID: 17, Title: "Commitment Statement", Description: "Put your commitment in writing.", FormKey: "commitment_statement", UnlocksStepID: 18},
}

// ChartingPathSteps are the motivation and planning exercises (18 <= id < 62).
var ChartingPathSteps = []models.StepDescriptor{
	{ID: 18, Title: "Picture the Destination", Description: "Visualize the person you are working toward becoming.", FormKey: "destination_picture"},
	{ID: 19, Title: "Goal Values", Description: "Connect one concrete goal to the values you named earlier.", FormKey: "goal_values"},
	{ID: 21, Title: "Ambivalence", Description: "What you like about how things are, and what change would cost.", FormKey: "ambivalence"},
	{ID: 22, Title: "Pros and Cons", Description: "Weigh staying the same against making the change.", FormKey: "pros_cons"},
	{ID: 24, Title: "Exceptions", Description: "Recall times the problem didn't happen and what was different.", FormKey: "exceptions"},
	{ID: 26, Title: "Strengths Inventory", Description: "Personal strengths you can lean on when change gets hard.", FormKey: "strengths_inventory"},
	{ID: 28, Title: "Past Wins", Description: "A change you made before and how you pulled it off.", FormKey: "past_wins"},
	{ID: 30, Title: "Rewriting the Script", Description: "Turn your most common self-defeating thought into a workable one.", FormKey: "rewriting_script"},
	{ID: 32, Title: "Environment Audit", Description: "What in your surroundings pushes you toward or away from the goal.", FormKey: "environment_audit"},
	{ID: 34, Title: "Social Fuel", Description: "Ask one person in your support circle for a specific kind of help.", FormKey: "social_fuel"},
	{ID: 36, Title: "Values Check-In", Description: "Revisit your core values against the goal you've set.", FormKey: "values_checkin"},
	{ID: 38, Title: "Obstacle Forecast", Description: "The three obstacles most likely to show up in the next month.", FormKey: "obstacle_forecast"},
	{ID: 40, Title: "If-Then Planning", Description: "Pre-decide your response to each forecast obstacle.", FormKey: "if_then_planning"},
	{ID: 43, Title: "Resource Development", Description: "Build the skills and supports your plan depends on.", FormKey: "resource_development", UnlocksStepID: 47},
	{ID: 45, Title: "Time Audit", Description: "Find the hours your new habits will actually live in.", FormKey: "time_audit"},
	{ID: 47, Title: "Resource Deep Dive", Description: "Extended work on the single resource you rated weakest.", FormKey: "resource_deep_dive", HideFromNavigation: true},
	{ID: 49, Title: "Accountability Plan", Description: "Decide how and to whom you'll report progress.", FormKey: "accountability_plan"},
	{ID: 52, Title: "Milestones", Description: "Break the six-month goal into monthly checkpoints.", FormKey: "milestones"},
	{ID: 55, Title: "Setback Rehearsal", Description: "Plan your first move after an inevitable bad week.", FormKey: "setback_rehearsal"},
	{ID: 58, Title: "Charting Path Review", Description: "A look back over the path you've charted."},
	{ID: 61, Title: "Ready to Act", Description: "Confirm your plan and step into the active-change phase.", FormKey: "ready_to_act", UnlocksStepID: 62},
}

// ActiveChangeSteps are the habit assessment and implementation exercises (id >= 62).
var ActiveChangeSteps = []models.StepDescriptor{
	{ID: 62, Title: "Habit Assessment", Description: "Work through the five habit categories to find your highest-leverage change.", FormKey: "habit_assessment"},
	{ID: 63, Title: "Focus Habits", Description: "Choose up to two habits to focus on for the next seven weeks.", FormKey: "focus_habits"},
	{ID: 65, Title: "Best Day Plan", Description: "Describe your ideal execution day and its contingencies.", FormKey: "day_plan"},
	{ID: 66, Title: "Worst Day Plan", Description: "Describe the day most likely to derail you and how you'll respond.", FormKey: "day_plan"},
	{ID: 68, Title: "Weekly Implementation", Description: "Plan and log each of the seven habit weeks.", FormKey: "weekly_steps"},
	{ID: 71, Title: "Mid-Point Review", Description: "At week four, review what the plan data is telling you.", FormKey: "midpoint_review"},
	{ID: 74, Title: "Graduation", Description: "Close out the program and set your maintenance plan.", FormKey: "graduation"},
}

// Default returns the build-time program catalog.
func Default() *Catalog {
	return defaultCatalog
}

var defaultCatalog = MustNew(StartingPointSteps, ChartingPathSteps, ActiveChangeSteps)
