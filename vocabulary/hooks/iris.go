package hooks

// Namespace is the base IRI prefix for all knowhook ontology terms.
const Namespace = "https://knowhook.dev/ontology/"

// EntityNamespace is the base IRI for knowhook entity instances.
const EntityNamespace = "https://knowhook.dev/entity/"

// Class IRIs define the types of resources in the hook ontology.
const (
	// ClassHook represents a named automation trigger pairing one
	// predicate with one or more pipelines.
	ClassHook = Namespace + "Hook"

	// ClassPredicate represents a boolean test over the knowledge graph.
	ClassPredicate = Namespace + "Predicate"

	// ClassPipeline represents an ordered group of steps run as one workflow.
	ClassPipeline = Namespace + "Pipeline"

	// ClassStep represents one typed unit of work within a pipeline.
	ClassStep = Namespace + "Step"
)

// Object property IRIs define relationships between hook resources.
const (
	// PropPredicate links a hook to its predicate.
	// Domain: ClassHook, Range: ClassPredicate. Exactly one per hook.
	PropPredicate = Namespace + "predicate"

	// PropPipelines links a hook to an ordered RDF list of pipelines.
	// Domain: ClassHook, Range: rdf:List of ClassPipeline.
	PropPipelines = Namespace + "pipelines"

	// PropSteps links a pipeline to an ordered RDF list of steps.
	// Domain: ClassPipeline, Range: rdf:List of ClassStep.
	PropSteps = Namespace + "steps"

	// PropDependsOn links a step to the steps it depends on.
	// Domain: ClassStep, Range: ClassStep. Repeated, unordered.
	PropDependsOn = Namespace + "dependsOn"
)

// Data property IRIs define literal-valued attributes.
const (
	// PropTitle is the human-readable hook title.
	PropTitle = Namespace + "title"

	// PropKind is the predicate kind. Values: ask, select-nonempty.
	PropKind = Namespace + "kind"

	// PropQueryText is the predicate or sparql-step query text.
	PropQueryText = Namespace + "queryText"

	// PropStepType is the step type.
	// Values: sparql, template, file, http, cli (extensible via registry).
	PropStepType = Namespace + "stepType"

	// PropOutputMapping is a JSON-encoded key rename map applied to a
	// step's outputs before they are recorded in the execution context.
	PropOutputMapping = Namespace + "outputMapping"

	// PropQuery is the query text for sparql steps.
	PropQuery = Namespace + "query"

	// PropTemplate is the template body for template steps.
	PropTemplate = Namespace + "template"

	// PropFilePath is the file path for template and file steps.
	PropFilePath = Namespace + "filePath"

	// PropTargetPath is the destination path for file copy operations.
	PropTargetPath = Namespace + "targetPath"

	// PropOperation is the file step operation. Values: read, write, copy.
	PropOperation = Namespace + "operation"

	// PropContent is the literal content for file write operations.
	PropContent = Namespace + "content"

	// PropURL is the request URL for http steps.
	PropURL = Namespace + "url"

	// PropMethod is the HTTP method for http steps.
	PropMethod = Namespace + "method"

	// PropHeaders is a JSON-encoded header map for http steps.
	PropHeaders = Namespace + "headers"

	// PropBody is the request body for http steps.
	PropBody = Namespace + "body"

	// PropAllowFailure tolerates non-2xx responses when "true".
	PropAllowFailure = Namespace + "allowFailure"

	// PropCommand is the shell command for cli steps.
	PropCommand = Namespace + "command"
)

// Repository-fact IRIs describe the git trigger ingested before a pass.
const (
	// ClassTriggerEvent represents one git lifecycle invocation.
	ClassTriggerEvent = Namespace + "TriggerEvent"

	// PropEvent is the lifecycle event name (pre-commit, post-merge, ...).
	PropEvent = Namespace + "event"

	// PropChangedPath is a path changed by the triggering git operation.
	// Repeated, one triple per path.
	PropChangedPath = Namespace + "changedPath"

	// PropBranch is the current branch name.
	PropBranch = Namespace + "branch"

	// PropHeadCommit is the current HEAD commit SHA.
	PropHeadCommit = Namespace + "headCommit"
)
