package parser

// querySet is one language's compiled-pattern source: a symbol query whose
// captures follow the "<kind>.name" / "<kind>.definition" convention
// spec.md §4.2.1 describes, and a reference query whose captures each mark
// one usage site (a call's callee, in every language here).
type querySet struct {
	symbols    string
	references string
}

// querySource holds the raw query text per language. Patterns are grounded
// on the teacher's per-language setup functions (internal/parser/parser_
// language_setup.go), generalized from the teacher's bare "@function" /
// "@function.name" pair to this module's "@function.definition" /
// "@function.name" pair so the name-capture prefix alone carries the kind,
// per the fixed mapping table.
var querySource = map[Language]querySet{
	LanguageGo: {
		symbols: `
			(function_declaration name: (identifier) @function.name) @function.definition
			(method_declaration name: (field_identifier) @method.name) @method.definition
			(type_spec name: (type_identifier) @struct.name type: (struct_type)) @struct.definition
			(type_spec name: (type_identifier) @interface.name type: (interface_type)) @interface.definition
			(type_spec name: (type_identifier) @variable.name) @variable.definition
			(const_spec name: (identifier) @const.name) @const.definition
			(var_spec name: (identifier) @variable.name) @variable.definition
			(import_spec path: (interpreted_string_literal) @import.name) @import.definition
		`,
		references: `(call_expression function: (identifier) @reference)`,
	},
	LanguagePython: {
		symbols: `
			(class_definition
				body: (block (function_definition name: (identifier) @method.name) @method.definition))
			(function_definition name: (identifier) @function.name) @function.definition
			(class_definition name: (identifier) @class.name) @class.definition
			(import_statement name: (dotted_name) @import.name) @import.definition
			(import_from_statement module_name: (dotted_name) @import.name) @import.definition
			(assignment left: (identifier) @variable.name) @variable.definition
		`,
		references: `(call expression: (identifier) @reference)`,
	},
	LanguageJavaScript: {
		symbols: `
			(function_declaration name: (identifier) @function.name) @function.definition
			(generator_function_declaration name: (identifier) @function.name) @function.definition
			(variable_declarator
				name: (identifier) @function.name
				value: [(arrow_function) (function_expression) (generator_function)]) @function.definition
			(method_definition name: (property_identifier) @method.name) @method.definition
			(class_declaration name: (identifier) @class.name) @class.definition
			(variable_declarator name: (identifier) @variable.name) @variable.definition
			(import_statement source: (string) @import.name) @import.definition
		`,
		references: `(call_expression function: (identifier) @reference)`,
	},
	LanguageTypeScript: {
		symbols: `
			(function_declaration name: (identifier) @function.name) @function.definition
			(generator_function_declaration name: (identifier) @function.name) @function.definition
			(method_definition name: (property_identifier) @method.name) @method.definition
			(function_expression name: (identifier) @function.name) @function.definition
			(class_declaration name: (type_identifier) @class.name) @class.definition
			(interface_declaration name: (type_identifier) @interface.name) @interface.definition
			(type_alias_declaration name: (type_identifier) @variable.name) @variable.definition
			(enum_declaration name: (identifier) @enum.name) @enum.definition
			(variable_declarator name: (identifier) @variable.name) @variable.definition
			(import_statement source: (string) @import.name) @import.definition
		`,
		references: `(call_expression function: (identifier) @reference)`,
	},
	LanguageRust: {
		symbols: `
			(impl_item
				body: (declaration_list (function_item name: (identifier) @method.name) @method.definition))
			(function_item name: (identifier) @function.name) @function.definition
			(struct_item name: (type_identifier) @struct.name) @struct.definition
			(enum_item name: (type_identifier) @enum.name) @enum.definition
			(trait_item name: (type_identifier) @trait.name) @trait.definition
			(mod_item name: (identifier) @module.name) @module.definition
			(const_item name: (identifier) @const.name) @const.definition
			(static_item name: (identifier) @static.name) @static.definition
			(let_declaration pattern: (identifier) @variable.name) @variable.definition
			(use_declaration argument: (_) @import.name) @import.definition
		`,
		references: `(call_expression function: (identifier) @reference)`,
	},
	LanguageC: {
		symbols: `
			(function_definition
				declarator: (function_declarator declarator: (identifier) @function.name)) @function.definition
			(struct_specifier name: (type_identifier) @struct.name) @struct.definition
			(enum_specifier name: (type_identifier) @enum.name) @enum.definition
			(preproc_include path: (_) @import.name) @import.definition
			(declaration declarator: (identifier) @variable.name) @variable.definition
		`,
		references: `(call_expression function: (identifier) @reference)`,
	},
	LanguageCpp: {
		symbols: `
			(function_definition
				declarator: (function_declarator declarator: (identifier) @function.name)) @function.definition
			(function_definition
				declarator: (function_declarator
					declarator: (field_identifier) @method.name)) @method.definition
			(class_specifier name: (type_identifier) @class.name) @class.definition
			(struct_specifier name: (type_identifier) @struct.name) @struct.definition
			(enum_specifier name: (type_identifier) @enum.name) @enum.definition
			(namespace_definition name: (namespace_identifier) @module.name) @module.definition
			(preproc_include path: (_) @import.name) @import.definition
			(declaration declarator: (identifier) @variable.name) @variable.definition
		`,
		references: `(call_expression function: (identifier) @reference)`,
	},
	LanguageJava: {
		symbols: `
			(method_declaration name: (identifier) @method.name) @method.definition
			(class_declaration name: (identifier) @class.name) @class.definition
			(interface_declaration name: (identifier) @interface.name) @interface.definition
			(enum_declaration name: (identifier) @enum.name) @enum.definition
			(import_declaration (scoped_identifier) @import.name) @import.definition
			(field_declaration
				declarator: (variable_declarator name: (identifier) @variable.name)) @variable.definition
		`,
		references: `(method_invocation name: (identifier) @reference)`,
	},
	LanguageCSharp: {
		symbols: `
			(method_declaration name: (identifier) @method.name) @method.definition
			(class_declaration name: (identifier) @class.name) @class.definition
			(interface_declaration name: (identifier) @interface.name) @interface.definition
			(struct_declaration name: (identifier) @struct.name) @struct.definition
			(enum_declaration name: (identifier) @enum.name) @enum.definition
			(using_directive (qualified_name) @import.name) @import.definition
			(field_declaration
				(variable_declaration (variable_declarator (identifier) @variable.name))) @variable.definition
		`,
		references: `(invocation_expression function: (identifier) @reference)`,
	},
	LanguageRuby: {
		symbols: `
			(method name: (identifier) @method.name) @method.definition
			(class name: (constant) @class.name) @class.definition
			(module name: (constant) @module.name) @module.definition
			(assignment left: (identifier) @variable.name) @variable.definition
		`,
		references: `(call method: (identifier) @reference)`,
	},
	LanguageKotlin: {
		symbols: `
			(function_declaration name: (simple_identifier) @function.name) @function.definition
			(class_declaration name: (type_identifier) @class.name) @class.definition
			(object_declaration name: (type_identifier) @module.name) @module.definition
			(property_declaration (variable_declaration name: (simple_identifier) @variable.name)) @variable.definition
			(import_header (identifier) @import.name) @import.definition
		`,
		references: `(call_expression expression: (simple_identifier) @reference)`,
	},
	LanguageScala: {
		symbols: `
			(function_definition name: (identifier) @function.name) @function.definition
			(class_definition name: (identifier) @class.name) @class.definition
			(trait_definition name: (identifier) @trait.name) @trait.definition
			(object_definition name: (identifier) @module.name) @module.definition
			(val_definition pattern: (identifier) @variable.name) @variable.definition
			(var_definition pattern: (identifier) @variable.name) @variable.definition
		`,
		references: `(call_expression function: (identifier) @reference)`,
	},
	LanguageSwift: {
		symbols: `
			(function_declaration name: (simple_identifier) @function.name) @function.definition
			(class_declaration name: (type_identifier) @class.name) @class.definition
			(protocol_declaration name: (type_identifier) @interface.name) @interface.definition
			(property_declaration (pattern (simple_identifier) @variable.name)) @variable.definition
		`,
		references: `(call_expression (simple_identifier) @reference)`,
	},
	LanguagePHP: {
		symbols: `
			(function_definition name: (name) @function.name) @function.definition
			(method_declaration name: (name) @method.name) @method.definition
			(class_declaration name: (name) @class.name) @class.definition
			(interface_declaration name: (name) @interface.name) @interface.definition
			(namespace_definition name: (namespace_name) @module.name) @module.definition
			(namespace_use_clause (qualified_name) @import.name) @import.definition
		`,
		references: `(function_call_expression function: (name) @reference)`,
	},
	LanguageObjectiveC: {
		symbols: `
			(class_interface name: (identifier) @class.name) @class.definition
			(protocol_declaration name: (identifier) @interface.name) @interface.definition
			(class_implementation name: (identifier) @class.name) @class.definition
		`,
		references: `(message_expression selector: (_) @reference)`,
	},
}
